// Package service ties generation to persistence and event fan-out.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"petrovrp/internal/broker"
	"petrovrp/internal/buildinfo"
	"petrovrp/internal/gen"
	"petrovrp/internal/logger"
	"petrovrp/internal/metrics"
	"petrovrp/internal/model"
	"petrovrp/internal/store"
)

// EventInstanceGenerated is published once per stored instance.
const EventInstanceGenerated = "instance.generated"

// Notifier receives events for outbound delivery. *webhooks.Notifier
// satisfies it.
type Notifier interface {
	Enqueue(ctx context.Context, eventType string, data any)
}

// Result is a stored instance.
type Result struct {
	ID       string          `json:"id"`
	Instance *model.Instance `json:"instance"`
}

// Instances generates, stores and announces instances.
type Instances struct {
	Store       store.Store
	Broker      broker.EventBroker
	Notifier    Notifier
	Parallelism int
	// Now stamps metadata.generated_at; time.Now when nil.
	Now func() time.Time
}

func (s *Instances) options() []gen.Option {
	opts := []gen.Option{
		gen.WithVersion(buildinfo.Version),
		gen.WithObserver(observe),
	}
	if s.Now != nil {
		opts = append(opts, gen.WithClock(s.Now))
	}
	return opts
}

func observe(inst *model.Instance, elapsed time.Duration) {
	md := inst.Metadata
	metrics.InstancesGenerated.WithLabelValues(md.Difficulty, md.Policy).Inc()
	metrics.GenerationSeconds.WithLabelValues(md.Policy).Observe(elapsed.Seconds())
	slack := inst.Statistics.TotalTrucksAvailable - inst.Statistics.MinTotalRequiredTrucks
	metrics.FleetSlack.WithLabelValues(md.Difficulty).Observe(float64(slack))
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, gen.ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, gen.ErrFeasibility), errors.Is(err, model.ErrIntegrity):
		return "defect"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// Generate builds one instance from cfg and stores it.
func (s *Instances) Generate(ctx context.Context, cfg gen.Config) (Result, error) {
	ctx = logger.WithFields(ctx, zap.String("instance", cfg.Name))
	inst, err := gen.GenerateInstance(cfg, s.options()...)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(failureReason(err)).Inc()
		return Result{}, err
	}
	return s.save(ctx, inst)
}

// GenerateBatch builds every config with bounded parallelism, then stores
// the instances in input order. Nothing is stored when any generation fails.
func (s *Instances) GenerateBatch(ctx context.Context, cfgs []gen.Config) ([]Result, error) {
	insts, err := gen.GenerateBatch(ctx, cfgs, s.Parallelism, s.options()...)
	if err != nil {
		metrics.GenerationFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}
	out := make([]Result, 0, len(insts))
	for _, inst := range insts {
		res, err := s.save(logger.WithFields(ctx, zap.String("instance", inst.Metadata.Name)), inst)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

func (s *Instances) save(ctx context.Context, inst *model.Instance) (Result, error) {
	id, err := s.Store.SaveInstance(ctx, inst)
	if err != nil {
		logger.Errorf(ctx, "save instance: %v", err)
		return Result{}, fmt.Errorf("save instance: %w", err)
	}
	summary := model.Summarize(id, inst)
	if s.Broker != nil {
		s.Broker.Publish(broker.Topic, broker.Event{
			Type: EventInstanceGenerated,
			Data: map[string]any{
				"id":         summary.ID,
				"name":       summary.Name,
				"difficulty": summary.Difficulty,
				"policy":     summary.Policy,
				"n_stations": summary.NStations,
				"n_trucks":   summary.NTrucks,
			},
		})
	}
	if s.Notifier != nil {
		s.Notifier.Enqueue(ctx, EventInstanceGenerated, summary)
	}
	stats := inst.Statistics
	logger.Infow(ctx, "instance generated",
		"id", id,
		"difficulty", inst.Metadata.Difficulty,
		"policy", inst.Metadata.Policy,
		"stations", inst.Parameters.NStations,
		"trucks", stats.TotalTrucksAvailable,
		"min_trucks", stats.MinTotalRequiredTrucks,
		"total_demand", stats.TotalDemand.Sum(),
	)
	return Result{ID: id, Instance: inst}, nil
}

func (s *Instances) Get(ctx context.Context, id string) (*model.Instance, error) {
	return s.Store.GetInstance(ctx, id)
}

func (s *Instances) List(ctx context.Context, cursor string, limit int) ([]model.Summary, string, error) {
	return s.Store.ListInstances(ctx, cursor, limit)
}

// DifficultyInfo is one row of the difficulty table.
type DifficultyInfo struct {
	Name string `json:"name"`
	gen.DifficultyProfile
}

func Difficulties() []DifficultyInfo {
	var out []DifficultyInfo
	for _, d := range gen.Difficulties() {
		p, _ := gen.Profile(d)
		out = append(out, DifficultyInfo{Name: string(d), DifficultyProfile: p})
	}
	return out
}

// StockRatios is total stock over total demand per product, for instances
// generated under the stock policy. Products without demand are skipped.
func StockRatios(inst *model.Instance) map[model.Product]float64 {
	if inst.Statistics.TotalStock == nil {
		return nil
	}
	out := map[model.Product]float64{}
	for _, p := range model.Products {
		if d := inst.Statistics.TotalDemand[p]; d > 0 {
			out[p] = float64(inst.Statistics.TotalStock[p]) / float64(d)
		}
	}
	return out
}
