package gen

import (
	"fmt"
	"time"

	"petrovrp/internal/model"
)

// Generator builds instances from one Source. It is not safe for concurrent
// use; the Source is consumed strictly in order.
type Generator struct {
	rng     Source
	now     func() time.Time
	version string
	observe func(inst *model.Instance, elapsed time.Duration)
}

type Option func(*Generator)

// WithClock overrides the clock used for metadata.generated_at.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithVersion records the generator version in instance metadata.
func WithVersion(v string) Option {
	return func(g *Generator) { g.version = v }
}

// WithObserver registers fn to be called with every successfully generated
// instance and the wall time it took.
func WithObserver(fn func(inst *model.Instance, elapsed time.Duration)) Option {
	return func(g *Generator) { g.observe = fn }
}

func New(rng Source, opts ...Option) *Generator {
	g := &Generator{rng: rng, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// GenerateInstance builds one instance with a Source seeded from cfg.SeedValue().
func GenerateInstance(cfg Config, opts ...Option) (*model.Instance, error) {
	return New(NewSource(cfg.SeedValue()), opts...).Generate(cfg)
}

// Generate validates cfg, samples sites and demand, lets the configured
// policy allocate trucks and stock, and assembles the instance. Either a
// complete instance or an error is returned.
func (g *Generator) Generate(cfg Config) (*model.Instance, error) {
	start := time.Now()
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}

	sampler := NewSampler(g.rng, demandPolicyFor(cfg))
	coords := sampler.Coordinates(cfg.NGarages+cfg.NDepots+cfg.NStations, cfg.ZoneSize)
	demands := sampler.Demands(cfg.NStations, cfg.DemandRange.Min, cfg.DemandRange.Max)
	totals := totalDemand(demands)

	inst := &model.Instance{
		Garages:  make([]model.Garage, cfg.NGarages),
		Depots:   make([]model.Depot, cfg.NDepots),
		Stations: make([]model.Station, cfg.NStations),
	}
	idx := 0
	garageIDs := make([]string, cfg.NGarages)
	for i := range inst.Garages {
		inst.Garages[i] = model.Garage{Site: site("G", "Garage", i, idx, coords[idx])}
		garageIDs[i] = inst.Garages[i].ID
		idx++
	}
	for i := range inst.Depots {
		inst.Depots[i] = model.Depot{Site: site("D", "Depot", i, idx, coords[idx])}
		idx++
	}
	for i := range inst.Stations {
		inst.Stations[i] = model.Station{Site: site("S", "Station", i, idx, coords[idx]), Demand: demands[i]}
		idx++
	}

	alloc, err := policy.EnsureFeasible(g.rng, AllocationRequest{
		Totals:     totals,
		Garages:    garageIDs,
		NDepots:    cfg.NDepots,
		Capacity:   cfg.TruckCapacity,
		Difficulty: cfg.Difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("generate: allocate with %s policy: %w", policy.Kind(), err)
	}
	inst.Trucks = alloc.Trucks

	var totalStock model.Quantities
	if alloc.DepotStock != nil {
		totalStock = make(model.Quantities, len(model.Products))
		for i := range inst.Depots {
			inst.Depots[i].Stock = alloc.DepotStock[i]
			for p, v := range alloc.DepotStock[i] {
				totalStock[p] += v
			}
		}
	}

	inst.DistanceMatrix = BuildDistanceMatrix(coords)

	inst.Metadata = model.Metadata{
		Name:             cfg.Name,
		GeneratedAt:      g.now().UTC().Format(time.RFC3339),
		Difficulty:       string(cfg.Difficulty),
		ZoneSizeKm:       cfg.ZoneSize,
		Description:      fmt.Sprintf("Instance %s with %d stations", cfg.Difficulty, cfg.NStations),
		Seed:             cfg.SeedValue(),
		Policy:           string(policy.Kind()),
		GeneratorVersion: g.version,
	}
	inst.Parameters = model.Parameters{
		NGarages:        cfg.NGarages,
		NDepots:         cfg.NDepots,
		NStations:       cfg.NStations,
		NTrucks:         len(alloc.Trucks),
		TruckCapacity:   cfg.TruckCapacity,
		Products:        append([]model.Product(nil), model.Products...),
		DemandRange:     cfg.DemandRange,
		Policy:          string(policy.Kind()),
		StockMultiplier: cfg.StockMultiplier,
	}
	inst.Statistics = model.Statistics{
		TotalDemand:               totals,
		RequiredTrucks:            alloc.RequiredTrucks,
		MinTotalRequiredTrucks:    alloc.MinFleetSize,
		TotalTrucksAvailable:      len(alloc.Trucks),
		TrucksPerProduct:          trucksPerProduct(alloc.Trucks),
		EffectiveCapacity:         alloc.EffectiveCapacity,
		TotalStock:                totalStock,
		AvgDistanceToNearestDepot: avgNearestDepot(inst.DistanceMatrix, inst.Depots, inst.Stations),
	}

	if err := inst.CheckIntegrity(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if err := policy.Verify(inst); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if g.observe != nil {
		g.observe(inst, time.Since(start))
	}
	return inst, nil
}

func site(prefix, label string, i, index int, c model.Coordinates) model.Site {
	return model.Site{
		ID:          fmt.Sprintf("%s%d", prefix, i+1),
		Name:        fmt.Sprintf("%s_%d", label, i+1),
		Coordinates: c,
		Index:       index,
	}
}

func trucksPerProduct(trucks []model.Truck) model.Quantities {
	var out model.Quantities
	for _, t := range trucks {
		if t.Product == "" {
			continue
		}
		if out == nil {
			out = make(model.Quantities, len(model.Products))
		}
		out[t.Product]++
	}
	return out
}
