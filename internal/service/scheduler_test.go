package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScanAllCoversEveryStore(t *testing.T) {
	env, svc, _ := newVarianceEnv(t)

	// An anomaly in each store.
	env.seedArrival(t, 100, testNow.AddDate(0, 0, -10))
	env.seedLoss(t, 25, model.LossDamage, testNow.AddDate(0, 0, -5))
	env.seedMovement(t, model.StockMovement{
		Type:      model.MovementArrival,
		StoreID:   env.store2.ID,
		ProductID: env.product.ID,
		Quantity:  100,
		UnitCost:  floatPtr(10),
	}, testNow.AddDate(0, 0, -10))
	env.seedMovement(t, model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      env.store2.ID,
		ProductID:    env.product.ID,
		Quantity:     -25,
		LossCategory: model.LossDamage,
	}, testNow.AddDate(0, 0, -5))

	scheduler := NewVarianceScheduler(svc, env.mem.Stores(), time.Minute, zap.NewNop())
	scheduler.ScanAll(context.Background())

	first, err := svc.ActiveAlerts(context.Background(), env.store.ID)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	second, err := svc.ActiveAlerts(context.Background(), env.store2.ID)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}

func TestSchedulerStops(t *testing.T) {
	env, svc, _ := newVarianceEnv(t)

	scheduler := NewVarianceScheduler(svc, env.mem.Stores(), 10*time.Millisecond, zap.NewNop())
	scheduler.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()
}

func TestSchedulerDefaultsInterval(t *testing.T) {
	env, svc, _ := newVarianceEnv(t)

	scheduler := NewVarianceScheduler(svc, env.mem.Stores(), 0, zap.NewNop())
	assert.Equal(t, 5*time.Minute, scheduler.interval)
}
