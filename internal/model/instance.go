package model

import (
	"errors"
	"fmt"
)

// ErrIntegrity is returned by CheckIntegrity when an instance is internally inconsistent.
var ErrIntegrity = errors.New("instance integrity violated")

// Sites returns garages, depots and stations in distance-matrix order.
func (inst *Instance) Sites() []Site {
	out := make([]Site, 0, len(inst.Garages)+len(inst.Depots)+len(inst.Stations))
	for _, g := range inst.Garages {
		out = append(out, g.Site)
	}
	for _, d := range inst.Depots {
		out = append(out, d.Site)
	}
	for _, s := range inst.Stations {
		out = append(out, s.Site)
	}
	return out
}

// CheckIntegrity verifies index assignment, the distance matrix shape and
// symmetry, and truck garage references.
func (inst *Instance) CheckIntegrity() error {
	sites := inst.Sites()
	for i, s := range sites {
		if s.Index != i {
			return fmt.Errorf("%w: site %s has index %d, want %d", ErrIntegrity, s.ID, s.Index, i)
		}
	}

	n := len(sites)
	if len(inst.DistanceMatrix) != n {
		return fmt.Errorf("%w: distance matrix has %d rows, want %d", ErrIntegrity, len(inst.DistanceMatrix), n)
	}
	for i, row := range inst.DistanceMatrix {
		if len(row) != n {
			return fmt.Errorf("%w: distance matrix row %d has %d columns, want %d", ErrIntegrity, i, len(row), n)
		}
		if row[i] != 0 {
			return fmt.Errorf("%w: distance matrix diagonal [%d][%d] = %v", ErrIntegrity, i, i, row[i])
		}
		for j := i + 1; j < n; j++ {
			if row[j] < 0 || row[j] != inst.DistanceMatrix[j][i] {
				return fmt.Errorf("%w: distance matrix [%d][%d]=%v vs [%d][%d]=%v", ErrIntegrity, i, j, row[j], j, i, inst.DistanceMatrix[j][i])
			}
		}
	}

	garages := make(map[string]struct{}, len(inst.Garages))
	for _, g := range inst.Garages {
		garages[g.ID] = struct{}{}
	}
	for _, t := range inst.Trucks {
		if _, ok := garages[t.HomeGarage]; !ok {
			return fmt.Errorf("%w: truck %s references unknown garage %q", ErrIntegrity, t.ID, t.HomeGarage)
		}
		if t.Capacity <= 0 {
			return fmt.Errorf("%w: truck %s has capacity %d", ErrIntegrity, t.ID, t.Capacity)
		}
	}
	return nil
}
