package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"petrovrp/internal/model"
)

// File writes each instance to <dir>/<id>.json. The id is the instance name
// when it is a safe file name, a fresh uuid otherwise; saving a name twice
// overwrites the earlier file.
type File struct {
	dir string
}

var safeName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Dir() string { return f.dir }

func (f *File) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

func (f *File) SaveInstance(ctx context.Context, inst *model.Instance) (string, error) {
	id := inst.Metadata.Name
	if !safeName.MatchString(id) {
		id = uuid.New().String()
	}
	inst.Metadata.ID = id
	body, err := sonic.ConfigStd.MarshalIndent(inst, "", "  ")
	if err != nil {
		return "", fmt.Errorf("file store: encode %s: %w", id, err)
	}
	tmp := f.path(id) + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return "", fmt.Errorf("file store: write %s: %w", id, err)
	}
	if err := os.Rename(tmp, f.path(id)); err != nil {
		return "", fmt.Errorf("file store: write %s: %w", id, err)
	}
	return id, nil
}

func (f *File) GetInstance(ctx context.Context, id string) (*model.Instance, error) {
	if !safeName.MatchString(id) {
		return nil, ErrNotFound
	}
	body, err := os.ReadFile(f.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("file store: read %s: %w", id, err)
	}
	var inst model.Instance
	if err := sonic.ConfigStd.Unmarshal(body, &inst); err != nil {
		return nil, fmt.Errorf("file store: decode %s: %w", id, err)
	}
	return &inst, nil
}

// ListInstances pages files in lexical id order.
func (f *File) ListInstances(ctx context.Context, cursor string, limit int) ([]model.Summary, string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, "", fmt.Errorf("file store: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if id := strings.TrimSuffix(name, ".json"); id > cursor {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	limit = clampLimit(limit)
	next := ""
	if len(ids) > limit {
		ids = ids[:limit]
		next = ids[limit-1]
	}
	items := make([]model.Summary, 0, len(ids))
	for _, id := range ids {
		inst, err := f.GetInstance(ctx, id)
		if err != nil {
			return nil, "", err
		}
		items = append(items, model.Summarize(id, inst))
	}
	return items, next, nil
}
