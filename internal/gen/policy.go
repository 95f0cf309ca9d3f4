package gen

import (
	"errors"
	"fmt"
	"math"

	"petrovrp/internal/model"
)

// ErrFeasibility marks a violated feasibility post-condition. It signals a
// defect in the allocation arithmetic, never unlucky input.
var ErrFeasibility = errors.New("feasibility guarantee violated")

// PolicyKind names a feasibility policy.
type PolicyKind string

const (
	// PolicyFleet dedicates trucks to products and sizes the fleet from demand.
	PolicyFleet PolicyKind = "fleet"
	// PolicyStock stocks depots above demand and perturbs truck capacities.
	PolicyStock PolicyKind = "stock"
)

// DefaultStockMultiplier is used by the stock policy when none is configured.
const DefaultStockMultiplier = 2.0

// stockVariation is the relative +/- spread of per-depot stock.
const stockVariation = 0.2

// AllocationRequest is what a policy needs to allocate trucks and stock.
type AllocationRequest struct {
	Totals     model.Quantities
	Garages    []string
	NDepots    int
	Capacity   int
	Difficulty Difficulty
}

// Allocation is a policy's answer: trucks, optional depot stock and the
// fleet sizing figures behind them.
type Allocation struct {
	Trucks            []model.Truck
	DepotStock        []model.Quantities
	RequiredTrucks    model.Quantities
	MinFleetSize      int
	EffectiveCapacity int
}

// FeasibilityPolicy allocates resources so that the instance admits at
// least one feasible assignment, and checks that guarantee on the result.
type FeasibilityPolicy interface {
	Kind() PolicyKind
	EnsureFeasible(rng Source, req AllocationRequest) (Allocation, error)
	Verify(inst *model.Instance) error
}

// NewPolicy returns the policy selected by a normalized config.
func NewPolicy(cfg Config) (FeasibilityPolicy, error) {
	switch cfg.Policy {
	case PolicyFleet, "":
		return FleetPolicy{}, nil
	case PolicyStock:
		return StockPolicy{Multiplier: cfg.StockMultiplier}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, cfg.Policy)
	}
}

func truckID(i int) string { return fmt.Sprintf("T%d", i+1) }

// FleetPolicy sizes the fleet at ceil(demand/capacity) per product, adds the
// difficulty margin and dedicates each truck to one product.
type FleetPolicy struct{}

func (FleetPolicy) Kind() PolicyKind { return PolicyFleet }

func (FleetPolicy) EnsureFeasible(rng Source, req AllocationRequest) (Allocation, error) {
	if len(req.Garages) == 0 {
		return Allocation{}, fmt.Errorf("%w: no garage to host trucks", ErrInvalidConfig)
	}
	required, minimum := requiredFor(req.Totals, req.Capacity)
	n := AvailableTrucks(minimum, req.Difficulty)
	products := dedicate(required, n)

	trucks := make([]model.Truck, n)
	for i := range trucks {
		trucks[i] = model.Truck{
			ID:         truckID(i),
			HomeGarage: req.Garages[rng.Intn(len(req.Garages))],
			Capacity:   req.Capacity,
			Product:    products[i],
		}
	}
	return Allocation{
		Trucks:            trucks,
		RequiredTrucks:    required,
		MinFleetSize:      minimum,
		EffectiveCapacity: req.Capacity,
	}, nil
}

// dedicate gives every product its required trucks first, then spreads the
// slack round-robin over the product set.
func dedicate(required model.Quantities, n int) []model.Product {
	out := make([]model.Product, 0, n)
	for _, p := range model.Products {
		for i := 0; i < required[p]; i++ {
			out = append(out, p)
		}
	}
	for i := 0; len(out) < n; i++ {
		out = append(out, model.Products[i%len(model.Products)])
	}
	return out
}

func (FleetPolicy) Verify(inst *model.Instance) error {
	if err := verifyFleetSize(inst); err != nil {
		return err
	}
	capacityFor := make(model.Quantities, len(model.Products))
	for _, t := range inst.Trucks {
		if t.Product == "" {
			return fmt.Errorf("%w: truck %s has no dedicated product", ErrFeasibility, t.ID)
		}
		capacityFor[t.Product] += t.Capacity
	}
	for _, p := range model.Products {
		if capacityFor[p] < inst.Statistics.TotalDemand[p] {
			return fmt.Errorf("%w: %s capacity %d below demand %d", ErrFeasibility, p, capacityFor[p], inst.Statistics.TotalDemand[p])
		}
	}
	return nil
}

// StockPolicy stocks depots with Multiplier times the demand, spread over
// depots with a random variation, and perturbs truck capacities by
// difficulty. The fleet is sized with the smallest capacity a perturbed
// truck can get.
type StockPolicy struct {
	Multiplier float64
}

func (StockPolicy) Kind() PolicyKind { return PolicyStock }

func (s StockPolicy) EnsureFeasible(rng Source, req AllocationRequest) (Allocation, error) {
	if s.Multiplier <= 1 {
		return Allocation{}, fmt.Errorf("%w: stock multiplier must be > 1 (got %v)", ErrInvalidConfig, s.Multiplier)
	}
	if req.NDepots <= 0 {
		return Allocation{}, fmt.Errorf("%w: stock policy needs at least one depot", ErrInvalidConfig)
	}
	if len(req.Garages) == 0 {
		return Allocation{}, fmt.Errorf("%w: no garage to host trucks", ErrInvalidConfig)
	}
	profile, ok := Profile(req.Difficulty)
	if !ok {
		return Allocation{}, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidConfig, req.Difficulty)
	}

	stock := s.distribute(rng, req.Totals, req.NDepots)

	effective := minPerturbedCapacity(req.Capacity, profile)
	required, minimum := requiredFor(req.Totals, effective)
	n := AvailableTrucks(minimum, req.Difficulty)
	trucks := make([]model.Truck, n)
	for i := range trucks {
		home := req.Garages[rng.Intn(len(req.Garages))]
		trucks[i] = model.Truck{
			ID:         truckID(i),
			HomeGarage: home,
			Capacity:   perturbedCapacity(rng, req.Capacity, profile, effective),
		}
	}
	return Allocation{
		Trucks:            trucks,
		DepotStock:        stock,
		RequiredTrucks:    required,
		MinFleetSize:      minimum,
		EffectiveCapacity: effective,
	}, nil
}

// distribute splits total*Multiplier over depots. The lower end of the
// variation band is raised to 1/Multiplier and every depot holds at least
// its even share of demand, so the aggregate stock covers demand.
func (s StockPolicy) distribute(rng Source, totals model.Quantities, nDepots int) []model.Quantities {
	low := math.Max(1-stockVariation, 1/s.Multiplier)
	high := 1 + stockVariation
	out := make([]model.Quantities, nDepots)
	for i := range out {
		q := make(model.Quantities, len(model.Products))
		for _, p := range model.Products {
			base := float64(totals[p]) * s.Multiplier / float64(nDepots)
			v := int(math.Ceil(base * uniform(rng, low, high)))
			share := (totals[p] + nDepots - 1) / nDepots
			q[p] = max(v, share)
		}
		out[i] = q
	}
	return out
}

func (StockPolicy) Verify(inst *model.Instance) error {
	if err := verifyFleetSize(inst); err != nil {
		return err
	}
	stock := make(model.Quantities, len(model.Products))
	for _, d := range inst.Depots {
		for p, v := range d.Stock {
			if v < 0 {
				return fmt.Errorf("%w: depot %s has negative %s stock", ErrFeasibility, d.ID, p)
			}
			stock[p] += v
		}
	}
	for _, p := range model.Products {
		if stock[p] < inst.Statistics.TotalDemand[p] {
			return fmt.Errorf("%w: %s stock %d below demand %d", ErrFeasibility, p, stock[p], inst.Statistics.TotalDemand[p])
		}
		if inst.Statistics.TotalStock[p] != stock[p] {
			return fmt.Errorf("%w: %s stock statistic %d, depots hold %d", ErrFeasibility, p, inst.Statistics.TotalStock[p], stock[p])
		}
	}
	for _, t := range inst.Trucks {
		if t.Capacity < inst.Statistics.EffectiveCapacity {
			return fmt.Errorf("%w: truck %s capacity %d below sizing capacity %d", ErrFeasibility, t.ID, t.Capacity, inst.Statistics.EffectiveCapacity)
		}
	}
	return nil
}

// verifyFleetSize recomputes demand and fleet figures from the instance and
// checks them against the statistics and the truck list.
func verifyFleetSize(inst *model.Instance) error {
	demands := make([]model.Quantities, len(inst.Stations))
	for i, s := range inst.Stations {
		demands[i] = s.Demand
	}
	totals := totalDemand(demands)
	stats := inst.Statistics
	for _, p := range model.Products {
		if totals[p] != stats.TotalDemand[p] {
			return fmt.Errorf("%w: %s demand statistic %d, stations want %d", ErrFeasibility, p, stats.TotalDemand[p], totals[p])
		}
	}

	required, minimum := requiredFor(totals, stats.EffectiveCapacity)
	for _, p := range model.Products {
		if required[p] != stats.RequiredTrucks[p] {
			return fmt.Errorf("%w: %s required trucks %d, want %d", ErrFeasibility, p, stats.RequiredTrucks[p], required[p])
		}
	}
	if minimum != stats.MinTotalRequiredTrucks {
		return fmt.Errorf("%w: minimum fleet %d, want %d", ErrFeasibility, stats.MinTotalRequiredTrucks, minimum)
	}
	n := len(inst.Trucks)
	if n != stats.TotalTrucksAvailable || n != inst.Parameters.NTrucks {
		return fmt.Errorf("%w: %d trucks listed, statistics say %d", ErrFeasibility, n, stats.TotalTrucksAvailable)
	}
	if n < minimum || n < MinFleetSize {
		return fmt.Errorf("%w: %d trucks available, %d required", ErrFeasibility, n, max(minimum, MinFleetSize))
	}
	return nil
}
