package gen

import (
	"github.com/shopspring/decimal"

	"petrovrp/internal/model"
)

// Difficulty tunes the slack between the minimum and the available fleet.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// MinFleetSize is the lower bound on available trucks, whatever the demand.
const MinFleetSize = 2

// DifficultyProfile holds the fleet margin and the capacity perturbation
// band applied to trucks under the stock policy.
type DifficultyProfile struct {
	Margin       float64 `json:"margin"`
	CapacityLow  float64 `json:"capacity_low"`
	CapacityHigh float64 `json:"capacity_high"`
}

var difficultyProfiles = map[Difficulty]DifficultyProfile{
	Easy:   {Margin: 1.20, CapacityLow: 1.0, CapacityHigh: 1.2},
	Medium: {Margin: 1.10, CapacityLow: 0.9, CapacityHigh: 1.1},
	Hard:   {Margin: 1.00, CapacityLow: 0.7, CapacityHigh: 1.0},
}

// Difficulties lists the known levels from easiest to hardest.
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard}
}

// Profile returns the table entry for d.
func Profile(d Difficulty) (DifficultyProfile, bool) {
	p, ok := difficultyProfiles[d]
	return p, ok
}

// RequiredTrucks is the number of single-product trucks of the given
// capacity needed to move demand.
func RequiredTrucks(demand, capacity int) int {
	if demand <= 0 {
		return 0
	}
	n := demand / capacity
	if demand%capacity != 0 {
		n++
	}
	return n
}

// requiredFor sizes each product independently and returns the per-product
// counts and their sum.
func requiredFor(totals model.Quantities, capacity int) (model.Quantities, int) {
	required := make(model.Quantities, len(model.Products))
	minimum := 0
	for _, p := range model.Products {
		r := RequiredTrucks(totals[p], capacity)
		required[p] = r
		minimum += r
	}
	return required, minimum
}

// AvailableTrucks applies the difficulty margin to minimum. The result is
// never below minimum nor MinFleetSize. Unknown levels get no slack.
func AvailableTrucks(minimum int, d Difficulty) int {
	p, ok := difficultyProfiles[d]
	if !ok {
		p = difficultyProfiles[Hard]
	}
	withMargin := decimal.NewFromInt(int64(minimum)).
		Mul(decimal.NewFromFloat(p.Margin)).
		Ceil().
		IntPart()
	return max(MinFleetSize, minimum, int(withMargin))
}

// minPerturbedCapacity is the smallest capacity a perturbed truck can get.
func minPerturbedCapacity(capacity int, p DifficultyProfile) int {
	low := decimal.NewFromInt(int64(capacity)).
		Mul(decimal.NewFromFloat(p.CapacityLow)).
		Floor().
		IntPart()
	return max(1, int(low))
}

func perturbedCapacity(rng Source, capacity int, p DifficultyProfile, floor int) int {
	c := int(float64(capacity) * uniform(rng, p.CapacityLow, p.CapacityHigh))
	return max(c, floor)
}
