package gen

import (
	"math"

	"github.com/shopspring/decimal"

	"petrovrp/internal/model"
)

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b model.Coordinates) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// BuildDistanceMatrix computes the symmetric all-pairs matrix over coords,
// each entry rounded to two decimals.
func BuildDistanceMatrix(coords []model.Coordinates) model.DistanceMatrix {
	n := len(coords)
	m := make(model.DistanceMatrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := round2(Euclidean(coords[i], coords[j]))
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

// avgNearestDepot averages, over stations, the matrix distance to the
// closest depot.
func avgNearestDepot(m model.DistanceMatrix, depots []model.Depot, stations []model.Station) float64 {
	if len(stations) == 0 || len(depots) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range stations {
		best := math.Inf(1)
		for _, d := range depots {
			if v := m[s.Index][d.Index]; v < best {
				best = v
			}
		}
		total += best
	}
	return round2(total / float64(len(stations)))
}
