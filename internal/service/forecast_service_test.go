package service

import (
	"context"
	"math"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysOfStock(t *testing.T) {
	assert.Equal(t, 5.0, DaysOfStock(10, 2))
	assert.True(t, math.IsInf(DaysOfStock(10, 0), 1))
	assert.True(t, math.IsInf(DaysOfStock(0, 0), 1))
	assert.Equal(t, 0.0, DaysOfStock(0, 2))
}

func TestClassifyDaysOfStock(t *testing.T) {
	thresholds := model.DefaultStockThresholds // {2, 7, 30}

	tests := []struct {
		days float64
		want string
	}{
		{0, model.StockLevelCritical},
		{2, model.StockLevelCritical},      // boundary belongs to critical
		{2.01, model.StockLevelLow},
		{7, model.StockLevelLow},           // boundary belongs to low
		{7.01, model.StockLevelNormal},
		{15, model.StockLevelNormal},
		{30, model.StockLevelNormal},       // boundary belongs to normal
		{30.01, model.StockLevelOverstock},
		{math.Inf(1), model.StockLevelOverstock},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ClassifyDaysOfStock(tc.days, thresholds), "days=%v", tc.days)
	}
}

func TestFlowRateAveragesOutflowOverWindow(t *testing.T) {
	env := newTestEnv(t)

	// 30 units of loss inside the 30-day window -> 1 unit/day.
	env.seedMovement(t, model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      env.store.ID,
		ProductID:    env.product.ID,
		Quantity:     -30,
		LossCategory: model.LossSpoilage,
	}, testNow.AddDate(0, 0, -10))

	// Arrivals and history outside the window do not count.
	env.seedMovement(t, model.StockMovement{
		Type:      model.MovementArrival,
		StoreID:   env.store.ID,
		ProductID: env.product.ID,
		Quantity:  100,
		UnitCost:  floatPtr(10),
	}, testNow.AddDate(0, 0, -5))
	env.seedMovement(t, model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      env.store.ID,
		ProductID:    env.product.ID,
		Quantity:     -900,
		LossCategory: model.LossSpoilage,
	}, testNow.AddDate(0, 0, -40))

	rate, err := env.forecast.FlowRate(context.Background(), env.store.ID, env.product.ID, DefaultFlowWindowDays)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 1e-9)
}

func TestFlowRateCountsTransfersOut(t *testing.T) {
	env := newTestEnv(t)

	env.seedMovement(t, model.StockMovement{
		Type:      model.MovementTransferOut,
		StoreID:   env.store.ID,
		ProductID: env.product.ID,
		Quantity:  -15,
	}, testNow.AddDate(0, 0, -3))
	env.seedMovement(t, model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      env.store.ID,
		ProductID:    env.product.ID,
		Quantity:     -15,
		LossCategory: model.LossDamage,
	}, testNow.AddDate(0, 0, -6))

	rate, err := env.forecast.FlowRate(context.Background(), env.store.ID, env.product.ID, DefaultFlowWindowDays)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 1e-9)
}

func TestFlowRateZeroWithoutHistory(t *testing.T) {
	env := newTestEnv(t)

	rate, err := env.forecast.FlowRate(context.Background(), env.store.ID, env.product.ID, DefaultFlowWindowDays)
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

// seedEnrichedPair creates a level with the given available quantity and a
// flow history of one unit/day.
func seedEnrichedPair(t *testing.T, env *testEnv, sku string, available float64, withFlow bool) uuid.UUID {
	t.Helper()
	p := env.newProduct(t, sku)
	require.NoError(t, env.mem.Levels().Save(context.Background(), &model.StockLevel{
		StoreID:           env.store.ID,
		ProductID:         p.ID,
		Quantity:          available,
		AvailableQuantity: available,
		LastUpdated:       testNow,
	}))
	if withFlow {
		env.seedMovement(t, model.StockMovement{
			Type:         model.MovementLoss,
			StoreID:      env.store.ID,
			ProductID:    p.ID,
			Quantity:     -30,
			LossCategory: model.LossSpoilage,
		}, testNow.AddDate(0, 0, -10))
	}
	return p.ID
}

func TestEnrichedStockLevelsSortedByUrgency(t *testing.T) {
	env := newTestEnv(t)

	critical := seedEnrichedPair(t, env, "SKU-CRIT", 1, true)    // 1 day
	low := seedEnrichedPair(t, env, "SKU-LOW", 5, true)          // 5 days
	overstock := seedEnrichedPair(t, env, "SKU-OVER", 100, true) // 100 days
	noFlow := seedEnrichedPair(t, env, "SKU-IDLE", 10, false)    // +Inf days
	normal := seedEnrichedPair(t, env, "SKU-NORM", 15, true)     // 15 days

	enriched, err := env.forecast.EnrichedStockLevels(context.Background(), env.store.ID, model.DefaultStockThresholds)
	require.NoError(t, err)
	require.Len(t, enriched, 5)

	got := make([]uuid.UUID, 0, len(enriched))
	for _, e := range enriched {
		got = append(got, e.ProductID)
	}
	// Critical first, then low, then overstock ascending by days, normal last.
	assert.Equal(t, []uuid.UUID{critical, low, overstock, noFlow, normal}, got)

	assert.Equal(t, model.StockLevelCritical, enriched[0].AlertLevel)
	assert.InDelta(t, 1.0, enriched[0].DaysOfStock, 1e-9)
	assert.True(t, math.IsInf(enriched[3].DaysOfStock, 1))
	assert.Equal(t, model.StockLevelOverstock, enriched[3].AlertLevel)
}

func TestCheckStockAlertsExcludesNormal(t *testing.T) {
	env := newTestEnv(t)

	seedEnrichedPair(t, env, "SKU-CRIT", 1, true)
	normal := seedEnrichedPair(t, env, "SKU-NORM", 15, true)

	alerts, err := env.forecast.CheckStockAlerts(context.Background(), env.store.ID, model.DefaultStockThresholds)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.NotEqual(t, normal, alerts[0].ProductID)
	assert.Equal(t, model.StockLevelCritical, alerts[0].AlertLevel)
}

func TestEnrichedStockLevelsRejectsBadThresholds(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.forecast.EnrichedStockLevels(context.Background(), env.store.ID, model.StockThresholds{
		Critical: 7, Low: 2, Overstock: 30,
	})
	require.ErrorIs(t, err, ErrInvalidThreshold)
}

func TestFlowRateDefaultsWindow(t *testing.T) {
	env := newTestEnv(t)

	env.seedMovement(t, model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      env.store.ID,
		ProductID:    env.product.ID,
		Quantity:     -60,
		LossCategory: model.LossSpoilage,
	}, testNow.Add(-time.Hour))

	rate, err := env.forecast.FlowRate(context.Background(), env.store.ID, env.product.ID, 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, rate, 1e-9)
}
