package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestAppendRejectsInvalidMovements(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		m     model.StockMovement
		field string
	}{
		{
			name:  "unknown type",
			m:     model.StockMovement{Type: "teleport", Quantity: 1},
			field: "type",
		},
		{
			name:  "arrival with non-positive quantity",
			m:     model.StockMovement{Type: model.MovementArrival, Quantity: 0, UnitCost: floatPtr(10)},
			field: "quantity",
		},
		{
			name:  "arrival without unit cost",
			m:     model.StockMovement{Type: model.MovementArrival, Quantity: 5},
			field: "unit_cost",
		},
		{
			name:  "arrival with negative unit cost",
			m:     model.StockMovement{Type: model.MovementArrival, Quantity: 5, UnitCost: floatPtr(-1)},
			field: "unit_cost",
		},
		{
			name:  "loss with positive quantity",
			m:     model.StockMovement{Type: model.MovementLoss, Quantity: 3, LossCategory: model.LossSpoilage},
			field: "quantity",
		},
		{
			name:  "loss without category",
			m:     model.StockMovement{Type: model.MovementLoss, Quantity: -3},
			field: "loss_category",
		},
		{
			name:  "loss with unknown category",
			m:     model.StockMovement{Type: model.MovementLoss, Quantity: -3, LossCategory: "theft"},
			field: "loss_category",
		},
		{
			name:  "transfer_out with positive quantity",
			m:     model.StockMovement{Type: model.MovementTransferOut, Quantity: 3},
			field: "quantity",
		},
		{
			name:  "transfer_in with negative quantity",
			m:     model.StockMovement{Type: model.MovementTransferIn, Quantity: -3},
			field: "quantity",
		},
		{
			name:  "zero adjustment",
			m:     model.StockMovement{Type: model.MovementAdjustment, Quantity: 0},
			field: "quantity",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.m.StoreID = env.store.ID
			tc.m.ProductID = env.product.ID

			_, err := env.ledger.Append(ctx, &tc.m)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tc.field, validationErr.Field)
		})
	}
}

func TestAppendRejectsUnknownReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	m := model.StockMovement{
		Type:      model.MovementArrival,
		StoreID:   uuid.New(),
		ProductID: env.product.ID,
		Quantity:  5,
		UnitCost:  floatPtr(10),
	}
	_, err := env.ledger.Append(ctx, &m)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "store_id", validationErr.Field)

	m.StoreID = env.store.ID
	m.ProductID = uuid.New()
	_, err = env.ledger.Append(ctx, &m)
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "product_id", validationErr.Field)
}

func TestAppendAssignsIdentityAndTimestamp(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.ledger.RecordArrival(context.Background(), ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  5,
		UnitCost:  10,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, testNow, m.RecordedAt)
}

func TestRecordLossStoresNegativeQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  10,
		UnitCost:  10,
	})
	require.NoError(t, err)

	m, err := env.ledger.RecordLoss(ctx, LossRequest{
		StoreID:   env.store.ID.String(),
		ProductID: env.product.ID.String(),
		Quantity:  3,
		Category:  "spoilage",
	})
	require.NoError(t, err)
	assert.Equal(t, -3.0, m.Quantity)
	assert.Equal(t, model.LossSpoilage, m.LossCategory)
	assert.Equal(t, 7.0, env.level(t, env.store.ID, env.product.ID).Quantity)
}

func TestMovementsOrderingAndPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		env.seedMovement(t, model.StockMovement{
			Type:      model.MovementArrival,
			StoreID:   env.store.ID,
			ProductID: env.product.ID,
			Quantity:  float64(i + 1),
			UnitCost:  floatPtr(10),
		}, testNow.Add(time.Duration(i)*time.Hour))
	}

	page1, total, err := env.ledger.Movements(ctx, env.store.ID, nil, nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)
	// Most recent first.
	assert.Equal(t, 5.0, page1[0].Quantity)
	assert.Equal(t, 4.0, page1[1].Quantity)

	page3, _, err := env.ledger.Movements(ctx, env.store.ID, nil, nil, 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, 1.0, page3[0].Quantity)

	// Reads do not change the ledger.
	_, totalAgain, err := env.ledger.Movements(ctx, env.store.ID, nil, nil, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, total, totalAgain)
}

func TestMovementsTimeRangeIsHalfOpen(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 3; i++ {
		env.seedMovement(t, model.StockMovement{
			Type:      model.MovementArrival,
			StoreID:   env.store.ID,
			ProductID: env.product.ID,
			Quantity:  float64(i + 1),
			UnitCost:  floatPtr(10),
		}, testNow.Add(time.Duration(i)*time.Hour))
	}

	start := testNow
	end := testNow.Add(2 * time.Hour)
	movements, total, err := env.ledger.Movements(context.Background(), env.store.ID, &start, &end, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, m := range movements {
		assert.True(t, !m.RecordedAt.Before(start) && m.RecordedAt.Before(end))
	}
}

func TestConcurrentAppendsSerializePerPair(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := env.ledger.RecordArrival(ctx, ArrivalRequest{
				StoreID:   env.store.ID.String(),
				ProductID: env.product.ID.String(),
				Quantity:  1,
				UnitCost:  10,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(workers), env.level(t, env.store.ID, env.product.ID).Quantity)

	_, total, err := env.ledger.Movements(ctx, env.store.ID, nil, nil, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), total)
}

func TestValidateReceptionAppendsArrivalPerLine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	second := env.newProduct(t, "FISH-SOLE")
	receptionID := uuid.New()

	movements, err := env.ledger.ValidateReception(ctx, ReceptionRequest{
		ReceptionID: receptionID.String(),
		StoreID:     env.store.ID.String(),
		Lines: []ReceptionLine{
			{ProductID: env.product.ID.String(), Quantity: 10},
			{ProductID: second.ID.String(), Quantity: 4},
		},
		CostMap: map[string]float64{
			env.product.ID.String(): 9.5,
			second.ID.String():      22,
		},
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Equal(t, model.MovementArrival, m.Type)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, receptionID, *m.ReferenceID)
		assert.Equal(t, "reception", m.ReferenceType)
	}

	assert.Equal(t, 10.0, env.level(t, env.store.ID, env.product.ID).Quantity)
	assert.Equal(t, 4.0, env.level(t, env.store.ID, second.ID).Quantity)
}

func TestValidateReceptionMissingCost(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ledger.ValidateReception(context.Background(), ReceptionRequest{
		ReceptionID: uuid.New().String(),
		StoreID:     env.store.ID.String(),
		Lines:       []ReceptionLine{{ProductID: env.product.ID.String(), Quantity: 10}},
		CostMap:     map[string]float64{},
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cost_map", validationErr.Field)
}
