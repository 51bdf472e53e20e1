package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMovementClampsAtZero(t *testing.T) {
	level := model.StockLevel{Quantity: 5}
	next, clampedBy := applyMovement(level, &model.StockMovement{Quantity: -8}, testNow)

	assert.Equal(t, 0.0, next.Quantity)
	assert.Equal(t, 3.0, clampedBy)
	assert.Equal(t, testNow, next.LastUpdated)
}

func TestApplyMovementNoClampOnExactZero(t *testing.T) {
	level := model.StockLevel{Quantity: 5}
	next, clampedBy := applyMovement(level, &model.StockMovement{Quantity: -5}, testNow)

	assert.Equal(t, 0.0, next.Quantity)
	assert.Equal(t, 0.0, clampedBy)
}

func TestApplyMovementRecomputesAvailable(t *testing.T) {
	level := model.StockLevel{Quantity: 10, ReservedQuantity: 4}
	next, _ := applyMovement(level, &model.StockMovement{Quantity: 2}, testNow)

	assert.Equal(t, 12.0, next.Quantity)
	assert.Equal(t, 8.0, next.AvailableQuantity)
}

func TestClampedLevelAcceptsLaterArrivals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  5,
		UnitCost:  10,
	})
	require.NoError(t, err)

	// Over-issue: the projection clamps at zero instead of going negative.
	_, err = env.ledger.RecordLoss(ctx, LossRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  9,
		Category:  "damage",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, env.level(t, env.store.ID, env.product.ID).Quantity)

	_, err = env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  3,
		UnitCost:  10,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.0, env.level(t, env.store.ID, env.product.ID).Quantity)
}

func TestReserveLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  10,
		UnitCost:  10,
	})
	require.NoError(t, err)

	level, err := env.stock.Reserve(ctx, env.store.ID, env.product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4.0, level.ReservedQuantity)
	assert.Equal(t, 6.0, level.AvailableQuantity)

	level, err = env.stock.Reserve(ctx, env.store.ID, env.product.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, level.ReservedQuantity)
	assert.Equal(t, 10.0, level.AvailableQuantity)
}

func TestReserveClampsAtZero(t *testing.T) {
	env := newTestEnv(t)

	level, err := env.stock.Reserve(context.Background(), env.store.ID, env.product.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0.0, level.ReservedQuantity)
}

func TestAvailableClampedWhenReservedExceedsQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Reserving against a pair with no on-hand stock must not produce a
	// negative available quantity.
	level, err := env.stock.Reserve(ctx, env.store.ID, env.product.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7.0, level.ReservedQuantity)
	assert.Equal(t, 0.0, level.AvailableQuantity)
}

func TestLevelUnknownPairIsZero(t *testing.T) {
	env := newTestEnv(t)

	level := env.level(t, env.store.ID, env.product.ID)
	assert.Equal(t, 0.0, level.Quantity)
	assert.Equal(t, 0.0, level.ReservedQuantity)
	assert.Equal(t, 0.0, level.AvailableQuantity)
	assert.Equal(t, env.store.ID, level.StoreID)
	assert.Equal(t, env.product.ID, level.ProductID)
}

func TestCurrentStockSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	second := env.newProduct(t, "FISH-SOLE")

	for _, p := range []string{env.product.ID.String(), second.ID.String()} {
		_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
			StoreID:   env.store.ID.String(),
			ProductID: p,
			Quantity:  5,
			UnitCost:  10,
		})
		require.NoError(t, err)
	}

	levels, err := env.stock.CurrentStock(ctx, env.store.ID)
	require.NoError(t, err)
	assert.Len(t, levels, 2)

	other, err := env.stock.CurrentStock(ctx, env.store2.ID)
	require.NoError(t, err)
	assert.Empty(t, other)
}
