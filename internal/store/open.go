package store

import (
	"context"
	"fmt"
	"time"
)

// Open builds the backend named by kind ("memory", "file" or "postgres").
// A Postgres store is migrated before it is returned.
func Open(ctx context.Context, kind, dir, dsn string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(dir)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("store: postgres backend needs a database URL")
		}
		p, err := NewPostgres(ctx, dsn, 30*time.Second)
		if err != nil {
			return nil, err
		}
		if err := p.Migrate(ctx); err != nil {
			_ = p.Close()
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", kind)
	}
}
