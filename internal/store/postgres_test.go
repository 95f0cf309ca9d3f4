package store

import (
	"testing"

	"github.com/google/uuid"

	"petrovrp/internal/model"
)

func TestInsertInstanceSQL(t *testing.T) {
	inst := &model.Instance{
		Metadata:   model.Metadata{Name: "easy_1", Difficulty: "easy", Policy: "fleet", GeneratedAt: "2025-01-01T00:00:00Z"},
		Parameters: model.Parameters{NStations: 8, NTrucks: 5},
	}
	query, args, err := insertInstance(uuid.Nil, inst, []byte(`{}`)).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "INSERT INTO vrp_instances (id,name,difficulty,policy,n_stations,n_trucks,generated_at,body) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)"
	if query != want {
		t.Fatalf("query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 8 || args[1] != "easy_1" || args[4] != 8 {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestListInstancesSQL(t *testing.T) {
	query, args, err := listInstances("", 10).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want := "SELECT id::text, name, difficulty, policy, n_stations, n_trucks, generated_at FROM vrp_instances ORDER BY id LIMIT 10"
	if query != want || len(args) != 0 {
		t.Fatalf("query:\n got %s %v\nwant %s", query, args, want)
	}

	query, args, err = listInstances("abc", 10).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}
	want = "SELECT id::text, name, difficulty, policy, n_stations, n_trucks, generated_at FROM vrp_instances WHERE id::text > $1 ORDER BY id LIMIT 10"
	if query != want || len(args) != 1 || args[0] != "abc" {
		t.Fatalf("query:\n got %s %v\nwant %s", query, args, want)
	}
}

func TestClampLimit(t *testing.T) {
	for in, want := range map[int]int{0: 100, -1: 100, 50: 50, 500: 500, 501: 100} {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
