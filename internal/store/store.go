package store

import (
	"context"
	"errors"

	"petrovrp/internal/model"
)

// Store persists generated instances.
type Store interface {
	// SaveInstance assigns an id, records it in inst.Metadata.ID and persists inst.
	SaveInstance(ctx context.Context, inst *model.Instance) (string, error)
	GetInstance(ctx context.Context, id string) (*model.Instance, error)
	// ListInstances pages summaries; an empty next cursor means no more items.
	ListInstances(ctx context.Context, cursor string, limit int) (items []model.Summary, nextCursor string, err error)
}

var ErrNotFound = errors.New("not found")

const (
	defaultLimit = 100
	maxLimit     = 500
)

func clampLimit(limit int) int {
	if limit <= 0 || limit > maxLimit {
		return defaultLimit
	}
	return limit
}
