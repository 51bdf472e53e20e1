package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCUMPWeightedAverage(t *testing.T) {
	// 10 kg on hand at 100, receive 5 kg at 130 -> (1000 + 650) / 15 = 110
	cost := ComputeCUMP(10, decimal.NewFromInt(100), 5, 130)
	assert.True(t, cost.Equal(decimal.NewFromInt(110)), "got %s", cost)
}

func TestComputeCUMPFirstArrival(t *testing.T) {
	cost := ComputeCUMP(0, decimal.Zero, 25, 8.5)
	assert.True(t, cost.Equal(decimal.NewFromFloat(8.5)), "got %s", cost)
}

func TestComputeCUMPAfterStockout(t *testing.T) {
	// The old cost basis is irrelevant once on-hand stock reached zero.
	cost := ComputeCUMP(0, decimal.NewFromInt(999), 10, 12)
	assert.True(t, cost.Equal(decimal.NewFromInt(12)), "got %s", cost)
}

func TestComputeCUMPRounding(t *testing.T) {
	// (1*10 + 2*10.05) / 3 = 10.0333... rounded to 4 decimals
	cost := ComputeCUMP(1, decimal.NewFromInt(10), 2, 10.05)
	assert.True(t, cost.Equal(decimal.NewFromFloat(10.0333)), "got %s", cost)
}

func TestApplyArrivalPersistsCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cost, err := env.costing.ApplyArrival(ctx, env.store.ID, env.product.ID, 0, 10, 100)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(100)))

	cost, err = env.costing.ApplyArrival(ctx, env.store.ID, env.product.ID, 10, 5, 130)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(110)))

	stored, err := env.costing.AverageCost(ctx, env.store.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(decimal.NewFromInt(110)))
}

func TestAverageCostZeroWithoutHistory(t *testing.T) {
	env := newTestEnv(t)

	cost, err := env.costing.AverageCost(context.Background(), env.store.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, cost.IsZero())
}

func TestLossDoesNotMoveCostBasis(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  10,
		UnitCost:  100,
	})
	require.NoError(t, err)

	_, err = env.ledger.RecordLoss(ctx, LossRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  4,
		Category:  "spoilage",
	})
	require.NoError(t, err)

	cost, err := env.costing.AverageCost(ctx, env.store.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(100)), "losses must not change the average cost, got %s", cost)
}

func TestArrivalAfterStockoutResetsCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  10,
		UnitCost:  100,
	})
	require.NoError(t, err)

	_, err = env.ledger.RecordLoss(ctx, LossRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  10,
		Category:  "damage",
	})
	require.NoError(t, err)

	_, err = env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  5,
		UnitCost:  80,
	})
	require.NoError(t, err)

	cost, err := env.costing.AverageCost(ctx, env.store.ID, env.product.ID)
	require.NoError(t, err)
	assert.True(t, cost.Equal(decimal.NewFromInt(80)), "got %s", cost)
}
