package model

import (
	"errors"
	"testing"
)

func smallInstance() *Instance {
	return &Instance{
		Garages:  []Garage{{Site{ID: "G1", Index: 0}}},
		Depots:   []Depot{{Site: Site{ID: "D1", Index: 1}}},
		Stations: []Station{{Site: Site{ID: "S1", Index: 2}, Demand: Quantities{Essence: 10}}},
		Trucks:   []Truck{{ID: "T1", HomeGarage: "G1", Capacity: 100}},
		DistanceMatrix: DistanceMatrix{
			{0, 1, 2},
			{1, 0, 3},
			{2, 3, 0},
		},
	}
}

func TestCheckIntegrityOK(t *testing.T) {
	if err := smallInstance().CheckIntegrity(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckIntegrityViolations(t *testing.T) {
	cases := map[string]func(*Instance){
		"index":      func(i *Instance) { i.Stations[0].Index = 5 },
		"asymmetric": func(i *Instance) { i.DistanceMatrix[0][2] = 9 },
		"diagonal":   func(i *Instance) { i.DistanceMatrix[1][1] = 1 },
		"rows":       func(i *Instance) { i.DistanceMatrix = i.DistanceMatrix[:2] },
		"garage":     func(i *Instance) { i.Trucks[0].HomeGarage = "G9" },
		"capacity":   func(i *Instance) { i.Trucks[0].Capacity = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			inst := smallInstance()
			mutate(inst)
			err := inst.CheckIntegrity()
			if !errors.Is(err, ErrIntegrity) {
				t.Fatalf("want ErrIntegrity, got %v", err)
			}
		})
	}
}

func TestSitesOrder(t *testing.T) {
	sites := smallInstance().Sites()
	want := []string{"G1", "D1", "S1"}
	if len(sites) != len(want) {
		t.Fatalf("got %d sites, want %d", len(sites), len(want))
	}
	for i, id := range want {
		if sites[i].ID != id {
			t.Errorf("sites[%d] = %s, want %s", i, sites[i].ID, id)
		}
	}
}

func TestQuantitiesSum(t *testing.T) {
	q := Quantities{Essence: 3, Gasoil: 4}
	if q.Sum() != 7 {
		t.Fatalf("sum = %d, want 7", q.Sum())
	}
}
