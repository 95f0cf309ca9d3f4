package gen

import "petrovrp/internal/model"

// DemandPolicyKind selects how station demand is drawn.
type DemandPolicyKind string

const (
	// DemandUniform gives every station a demand for every product.
	DemandUniform DemandPolicyKind = "uniform"
	// DemandSparse lets a station skip a product with a fixed probability.
	DemandSparse DemandPolicyKind = "sparse"
)

// DefaultAbsence is the per-product probability of no demand under DemandSparse.
var DefaultAbsence = map[model.Product]float64{
	model.Essence: 0.2,
	model.Gasoil:  0.3,
}

// DemandPolicy draws one station's demand record.
type DemandPolicy interface {
	Draw(rng Source, min, max int) model.Quantities
}

type UniformDemand struct{}

func (UniformDemand) Draw(rng Source, min, max int) model.Quantities {
	q := make(model.Quantities, len(model.Products))
	for _, p := range model.Products {
		q[p] = uniformInt(rng, min, max)
	}
	return q
}

// SparseDemand draws, per product, whether the station wants it at all
// before drawing the quantity.
type SparseDemand struct {
	Absence map[model.Product]float64
}

func (s SparseDemand) Draw(rng Source, min, max int) model.Quantities {
	q := make(model.Quantities, len(model.Products))
	for _, p := range model.Products {
		if rng.Float64() < s.Absence[p] {
			q[p] = 0
			continue
		}
		q[p] = uniformInt(rng, min, max)
	}
	return q
}

// Sampler draws site coordinates and station demands from one Source.
type Sampler struct {
	rng    Source
	demand DemandPolicy
}

func NewSampler(rng Source, demand DemandPolicy) *Sampler {
	if demand == nil {
		demand = UniformDemand{}
	}
	return &Sampler{rng: rng, demand: demand}
}

// Coordinates returns n points uniform in [0, zone] x [0, zone], rounded to
// two decimals.
func (s *Sampler) Coordinates(n int, zone float64) []model.Coordinates {
	out := make([]model.Coordinates, n)
	for i := range out {
		x := uniform(s.rng, 0, zone)
		y := uniform(s.rng, 0, zone)
		out[i] = model.Coordinates{X: round2(x), Y: round2(y)}
	}
	return out
}

// Demands returns one demand record per station, quantities in [min, max].
func (s *Sampler) Demands(n, min, max int) []model.Quantities {
	out := make([]model.Quantities, n)
	for i := range out {
		out[i] = s.demand.Draw(s.rng, min, max)
	}
	return out
}

func demandPolicyFor(cfg Config) DemandPolicy {
	if cfg.DemandPolicy == DemandSparse {
		return SparseDemand{Absence: cfg.AbsenceProbability}
	}
	return UniformDemand{}
}

func totalDemand(demands []model.Quantities) model.Quantities {
	totals := make(model.Quantities, len(model.Products))
	for _, p := range model.Products {
		totals[p] = 0
	}
	for _, d := range demands {
		for p, v := range d {
			totals[p] += v
		}
	}
	return totals
}
