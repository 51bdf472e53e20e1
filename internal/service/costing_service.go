package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// costScale is the stored precision of the weighted-average unit cost.
const costScale = 4

// CostingService maintains the weighted-average unit cost (CUMP) per
// (store, product). Only arrival movements move the cost basis.
type CostingService interface {
	// ApplyArrival folds a receipt into the cost basis. prevQty is the
	// on-hand quantity captured before the projector applied the arrival.
	ApplyArrival(ctx context.Context, storeID, productID uuid.UUID, prevQty, receivedQty, unitCost float64) (decimal.Decimal, error)
	// AverageCost returns the current CUMP, zero when no arrival was ever
	// recorded for the pair.
	AverageCost(ctx context.Context, storeID, productID uuid.UUID) (decimal.Decimal, error)
}

type costingService struct {
	costs repository.AverageCostRepository
	now   func() time.Time
}

func NewCostingService(costs repository.AverageCostRepository) CostingService {
	return &costingService{costs: costs, now: time.Now}
}

// ComputeCUMP returns the new weighted-average unit cost after receiving
// receivedQty units at unitCost on top of oldQty units at oldCost:
//
//	(oldQty*oldCost + receivedQty*unitCost) / (oldQty + receivedQty)
//
// With no prior stock (first receipt, or stock previously driven to zero)
// the new cost is the arrival's unit cost; this also guards the division.
func ComputeCUMP(oldQty float64, oldCost decimal.Decimal, receivedQty, unitCost float64) decimal.Decimal {
	received := decimal.NewFromFloat(unitCost)
	if oldQty <= 0 {
		return received.Round(costScale)
	}

	oldQtyDec := decimal.NewFromFloat(oldQty)
	receivedQtyDec := decimal.NewFromFloat(receivedQty)
	total := oldQtyDec.Add(receivedQtyDec)
	if total.IsZero() {
		return received.Round(costScale)
	}

	value := oldCost.Mul(oldQtyDec).Add(received.Mul(receivedQtyDec))
	return value.Div(total).Round(costScale)
}

func (s *costingService) ApplyArrival(ctx context.Context, storeID, productID uuid.UUID, prevQty, receivedQty, unitCost float64) (decimal.Decimal, error) {
	cost, err := s.costs.Get(ctx, storeID, productID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, err
		}
		cost = &model.AverageCost{StoreID: storeID, ProductID: productID}
	}

	cost.UnitCost = ComputeCUMP(prevQty, cost.UnitCost, receivedQty, unitCost)
	cost.UpdatedAt = s.now()

	if err := s.costs.Save(ctx, cost); err != nil {
		return decimal.Zero, err
	}
	return cost.UnitCost, nil
}

func (s *costingService) AverageCost(ctx context.Context, storeID, productID uuid.UUID) (decimal.Decimal, error) {
	cost, err := s.costs.Get(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return cost.UnitCost, nil
}
