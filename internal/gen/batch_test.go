package gen

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"petrovrp/internal/model"
)

func TestGenerateBatchOrderedAndDeterministic(t *testing.T) {
	var cfgs []Config
	for i, d := range []Difficulty{Easy, Medium, Hard, Easy} {
		c := exampleConfig(d).WithSeed(int64(100 + i))
		c.Name = string(d)
		cfgs = append(cfgs, c)
	}
	cfgs[3].Policy = PolicyStock

	got, err := GenerateBatch(context.Background(), cfgs, 2, WithClock(fixedNow))
	require.NoError(t, err)
	require.Len(t, got, len(cfgs))
	for i, inst := range got {
		want, err := GenerateInstance(cfgs[i], WithClock(fixedNow))
		require.NoError(t, err)
		assert.Equal(t, want, inst)
	}
}

func TestGenerateBatchFailsOnInvalidConfig(t *testing.T) {
	bad := exampleConfig(Easy)
	bad.TruckCapacity = 0
	got, err := GenerateBatch(context.Background(), []Config{exampleConfig(Easy), bad}, 0)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "config 1")
}

func TestGenerateBatchCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GenerateBatch(ctx, []Config{exampleConfig(Easy)}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateBatchRejectsOverflowingDemand(t *testing.T) {
	bad := exampleConfig(Medium)
	bad.DemandRange = model.DemandRange{Min: 0, Max: math.MaxInt}
	got, err := GenerateBatch(context.Background(), []Config{exampleConfig(Easy), bad, exampleConfig(Hard)}, 3)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
