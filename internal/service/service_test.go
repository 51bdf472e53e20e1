package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testNow is the frozen clock used by every service under test.
var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	mem      *memory.Store
	locks    *KeyedMutex
	stock    *StockService
	costing  CostingService
	ledger   LedgerService
	forecast ForecastService

	store   model.Store
	store2  model.Store
	product model.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mem := memory.New()
	locks := NewKeyedMutex()
	logger := zap.NewNop()

	stock := NewStockService(mem.Levels(), locks, nil, logger)
	stock.now = func() time.Time { return testNow }

	costing := NewCostingService(mem.Costs())
	costing.(*costingService).now = func() time.Time { return testNow }

	ledger := NewLedgerService(mem.Movements(), mem.Stores(), mem.Products(), mem.TxManager(), stock, costing, locks, logger)
	ledger.(*ledgerService).now = func() time.Time { return testNow }

	forecast := NewForecastService(mem.Movements(), mem.Levels())
	forecast.(*forecastService).now = func() time.Time { return testNow }

	env := &testEnv{
		mem:      mem,
		locks:    locks,
		stock:    stock,
		costing:  costing,
		ledger:   ledger,
		forecast: forecast,
		store:    model.Store{ID: uuid.New(), Code: "HAV", Name: "Le Havre Centre", City: "Le Havre"},
		store2:   model.Store{ID: uuid.New(), Code: "ROU", Name: "Rouen Halles", City: "Rouen"},
		product:  model.Product{ID: uuid.New(), SKU: "FISH-COD", Name: "Cabillaud", Unit: "kg"},
	}

	ctx := context.Background()
	require.NoError(t, mem.Stores().Create(ctx, &env.store))
	require.NoError(t, mem.Stores().Create(ctx, &env.store2))
	require.NoError(t, mem.Products().Create(ctx, &env.product))
	return env
}

func (e *testEnv) newProduct(t *testing.T, sku string) model.Product {
	t.Helper()
	p := model.Product{ID: uuid.New(), SKU: sku, Name: sku, Unit: "kg"}
	require.NoError(t, e.mem.Products().Create(context.Background(), &p))
	return p
}

// seedMovement writes a movement straight to the repository with an explicit
// timestamp, bypassing validation and projection. Used to build history for
// the forecast and variance checks.
func (e *testEnv) seedMovement(t *testing.T, m model.StockMovement, at time.Time) {
	t.Helper()
	m.ID = uuid.New()
	m.RecordedAt = at
	require.NoError(t, e.mem.Movements().Append(context.Background(), &m))
}

func (e *testEnv) level(t *testing.T, storeID, productID uuid.UUID) model.StockLevel {
	t.Helper()
	level, err := e.stock.Level(context.Background(), storeID, productID)
	require.NoError(t, err)
	return *level
}
