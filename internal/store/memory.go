package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"petrovrp/internal/model"
)

// Memory keeps instances in process. Listing is ordered by id and resumes
// after the cursor, like the file and Postgres stores.
type Memory struct {
	mu   sync.Mutex
	byID map[string]*model.Instance
	ids  []string // sorted
}

func NewMemory() *Memory {
	return &Memory{byID: map[string]*model.Instance{}}
}

func (m *Memory) SaveInstance(ctx context.Context, inst *model.Instance) (string, error) {
	id := uuid.New().String()
	inst.Metadata.ID = id
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id] = inst
	i := sort.SearchStrings(m.ids, id)
	m.ids = append(m.ids, "")
	copy(m.ids[i+1:], m.ids[i:])
	m.ids[i] = id
	return id, nil
}

func (m *Memory) GetInstance(ctx context.Context, id string) (*model.Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return inst, nil
}

func (m *Memory) ListInstances(ctx context.Context, cursor string, limit int) ([]model.Summary, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	start := sort.Search(len(m.ids), func(i int) bool { return m.ids[i] > cursor })
	limit = clampLimit(limit)
	end := min(start+limit, len(m.ids))
	items := make([]model.Summary, 0, end-start)
	for _, id := range m.ids[start:end] {
		items = append(items, model.Summarize(id, m.byID[id]))
	}
	next := ""
	if end < len(m.ids) {
		next = m.ids[end-1]
	}
	return items, next, nil
}
