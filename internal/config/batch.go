package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"petrovrp/internal/gen"
	"petrovrp/internal/model"
)

// DefaultSeed is the base seed of the built-in batch.
const DefaultSeed int64 = 42

// Batch is a list of instance configs sharing a base seed.
type Batch struct {
	Seed      int64        `json:"seed" yaml:"seed"`
	Instances []gen.Config `json:"instances" yaml:"instances"`
}

// Resolved returns the configs with seeds filled in: a config without its
// own seed gets Seed + its position in the list. An explicit seed, 0
// included, is kept.
func (b Batch) Resolved() []gen.Config {
	out := make([]gen.Config, len(b.Instances))
	for i, c := range b.Instances {
		if c.Seed == nil {
			c = c.WithSeed(b.Seed + int64(i))
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("instance_%d", i+1)
		}
		out[i] = c
	}
	return out
}

// LoadBatch reads a YAML batch file.
func LoadBatch(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("load batch: %w", err)
	}
	defer f.Close()
	b, err := ParseBatch(f)
	if err != nil {
		return Batch{}, fmt.Errorf("load batch %s: %w", path, err)
	}
	return b, nil
}

// ParseBatch decodes a batch, rejecting unknown keys.
func ParseBatch(r io.Reader) (Batch, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, err
	}
	var b Batch
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && !errors.Is(err, io.EOF) {
		return Batch{}, err
	}
	if len(b.Instances) == 0 {
		return Batch{}, errors.New("batch has no instances")
	}
	return b, nil
}

// DefaultBatch is the reference set: two easy, two medium and one hard
// instance.
func DefaultBatch() Batch {
	return Batch{
		Seed: DefaultSeed,
		Instances: []gen.Config{
			{Name: "easy_1", NGarages: 2, NDepots: 2, NStations: 8, TruckCapacity: 15000, ZoneSize: 50,
				DemandRange: model.DemandRange{Min: 2000, Max: 5000}, Difficulty: gen.Easy},
			{Name: "easy_2", NGarages: 2, NDepots: 3, NStations: 10, TruckCapacity: 18000, ZoneSize: 60,
				DemandRange: model.DemandRange{Min: 2000, Max: 6000}, Difficulty: gen.Easy},
			{Name: "medium_1", NGarages: 3, NDepots: 3, NStations: 15, TruckCapacity: 12000, ZoneSize: 100,
				DemandRange: model.DemandRange{Min: 3000, Max: 7000}, Difficulty: gen.Medium},
			{Name: "medium_2", NGarages: 3, NDepots: 4, NStations: 20, TruckCapacity: 12000, ZoneSize: 80,
				DemandRange: model.DemandRange{Min: 2500, Max: 6500}, Difficulty: gen.Medium},
			{Name: "hard_1", NGarages: 4, NDepots: 4, NStations: 30, TruckCapacity: 10000, ZoneSize: 150,
				DemandRange: model.DemandRange{Min: 3000, Max: 8000}, Difficulty: gen.Hard},
		},
	}
}

// WriteBatch encodes b as YAML.
func WriteBatch(w io.Writer, b Batch) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return err
	}
	return enc.Close()
}
