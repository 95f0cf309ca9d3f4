//go:build postgres_integration

package store

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(t.Context(), dsn, 5*time.Second)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Migrate(t.Context()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	inst := sampleInstance("pg_it")
	id, err := p.SaveInstance(t.Context(), inst)
	if err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	got, err := p.GetInstance(t.Context(), id)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.Metadata.ID != id || got.Parameters.NStations != 1 {
		t.Fatalf("unexpected instance %+v", got.Metadata)
	}
	if _, _, err := p.ListInstances(t.Context(), "", 1); err != nil {
		t.Fatalf("ListInstances: %v", err)
	}
	if _, err := p.GetInstance(t.Context(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}
