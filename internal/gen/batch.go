package gen

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"petrovrp/internal/model"
)

// GenerateBatch builds one instance per config, each from its own Source
// seeded with cfg.SeedValue(), running at most parallelism generations at once
// (unbounded when <= 0). Results keep the order of cfgs; the first error
// cancels the remaining work.
func GenerateBatch(ctx context.Context, cfgs []Config, parallelism int, opts ...Option) ([]*model.Instance, error) {
	out := make([]*model.Instance, len(cfgs))
	eg, egCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}
	for i, cfg := range cfgs {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			inst, err := GenerateInstance(cfg, opts...)
			if err != nil {
				return fmt.Errorf("generate batch: config %d (%s): %w", i, cfg.Name, err)
			}
			out[i] = inst
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
