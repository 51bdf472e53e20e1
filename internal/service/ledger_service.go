package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DTOs
type ArrivalRequest struct {
	StoreID     string  `json:"store_id" binding:"required"`
	ProductID   string  `json:"product_id" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	UnitCost    float64 `json:"unit_cost" binding:"required,gt=0"`
	Reason      string  `json:"reason"`
	ReferenceID string  `json:"reference_id"`
	RecordedBy  string  `json:"recorded_by"`
}

type LossRequest struct {
	StoreID    string  `json:"store_id" binding:"required"`
	ProductID  string  `json:"product_id" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"` // issued positive, stored negative
	Category   string  `json:"category" binding:"required,oneof=spoilage damage promotion"`
	Reason     string  `json:"reason"`
	RecordedBy string  `json:"recorded_by"`
}

type AdjustmentRequest struct {
	StoreID    string  `json:"store_id" binding:"required"`
	ProductID  string  `json:"product_id" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required"`
	Reason     string  `json:"reason" binding:"required"`
	RecordedBy string  `json:"recorded_by"`
}

// ReceptionLine is one line of a validated supplier delivery note
// (bon de réception).
type ReceptionLine struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
}

type ReceptionRequest struct {
	ReceptionID string             `json:"reception_id" binding:"required"`
	StoreID     string             `json:"store_id" binding:"required"`
	Lines       []ReceptionLine    `json:"lines" binding:"required,min=1,dive"`
	CostMap     map[string]float64 `json:"cost_map" binding:"required"` // product id -> unit cost
	RecordedBy  string             `json:"recorded_by"`
}

// LedgerService is the single entry point for inventory events. Movements
// are append-only: there is no update or delete, a correction is a new
// compensating adjustment.
type LedgerService interface {
	Append(ctx context.Context, m *model.StockMovement) (*model.StockMovement, error)
	RecordArrival(ctx context.Context, req ArrivalRequest) (*model.StockMovement, error)
	RecordLoss(ctx context.Context, req LossRequest) (*model.StockMovement, error)
	RecordAdjustment(ctx context.Context, req AdjustmentRequest) (*model.StockMovement, error)
	ValidateReception(ctx context.Context, req ReceptionRequest) ([]model.StockMovement, error)
	Movements(ctx context.Context, storeID uuid.UUID, start, end *time.Time, page, limit int) ([]model.StockMovement, int64, error)
}

type ledgerService struct {
	movements repository.MovementRepository
	stores    repository.StoreRepository
	products  repository.ProductRepository
	txManager repository.TransactionManager
	stock     *StockService
	costing   CostingService
	locks     *KeyedMutex
	log       *zap.Logger
	now       func() time.Time
}

func NewLedgerService(
	movements repository.MovementRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	txManager repository.TransactionManager,
	stock *StockService,
	costing CostingService,
	locks *KeyedMutex,
	log *zap.Logger,
) LedgerService {
	return &ledgerService{
		movements: movements,
		stores:    stores,
		products:  products,
		txManager: txManager,
		stock:     stock,
		costing:   costing,
		locks:     locks,
		log:       log,
		now:       time.Now,
	}
}

// validateMovement enforces the per-type sign and field-presence rules.
func validateMovement(m *model.StockMovement) error {
	if !model.ValidMovementType(m.Type) {
		return newValidationError("type", "unknown movement type")
	}

	switch m.Type {
	case model.MovementArrival:
		if m.Quantity <= 0 {
			return newValidationError("quantity", "arrival quantity must be positive")
		}
		if m.UnitCost == nil {
			return newValidationError("unit_cost", "arrival requires a unit cost")
		}
		if *m.UnitCost <= 0 {
			return newValidationError("unit_cost", "unit cost must be positive")
		}
	case model.MovementLoss:
		if m.Quantity >= 0 {
			return newValidationError("quantity", "loss quantity must be negative")
		}
		if !model.ValidLossCategory(m.LossCategory) {
			return newValidationError("loss_category", "loss requires a category of spoilage, damage or promotion")
		}
	case model.MovementTransferOut:
		if m.Quantity >= 0 {
			return newValidationError("quantity", "transfer_out quantity must be negative")
		}
	case model.MovementTransferIn:
		if m.Quantity <= 0 {
			return newValidationError("quantity", "transfer_in quantity must be positive")
		}
	case model.MovementAdjustment:
		if m.Quantity == 0 {
			return newValidationError("quantity", "adjustment quantity must be non-zero")
		}
	}
	return nil
}

func (s *ledgerService) checkReferences(ctx context.Context, storeID, productID uuid.UUID) error {
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newValidationError("store_id", "store does not exist")
		}
		return fmt.Errorf("failed to look up store: %w", err)
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newValidationError("product_id", "product does not exist")
		}
		return fmt.Errorf("failed to look up product: %w", err)
	}
	return nil
}

func (s *ledgerService) Append(ctx context.Context, m *model.StockMovement) (*model.StockMovement, error) {
	if err := validateMovement(m); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, m.StoreID, m.ProductID); err != nil {
		return nil, err
	}

	m.ID = uuid.New()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = s.now()
	}

	unlock := s.locks.Lock(m.StoreID, m.ProductID)
	defer unlock()

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.movements.Append(txCtx, m); err != nil {
			return fmt.Errorf("failed to append movement: %w", err)
		}

		prevQty, err := s.stock.apply(txCtx, m)
		if err != nil {
			return fmt.Errorf("failed to project movement: %w", err)
		}

		if m.Type == model.MovementArrival {
			if _, err := s.costing.ApplyArrival(txCtx, m.StoreID, m.ProductID, prevQty, m.Quantity, *m.UnitCost); err != nil {
				return fmt.Errorf("failed to update average cost: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("movement appended",
		zap.String("movement_id", m.ID.String()),
		zap.String("type", m.Type),
		zap.String("store_id", m.StoreID.String()),
		zap.String("product_id", m.ProductID.String()),
		zap.Float64("quantity", m.Quantity),
	)
	return m, nil
}

func (s *ledgerService) RecordArrival(ctx context.Context, req ArrivalRequest) (*model.StockMovement, error) {
	storeID, productID, err := parsePairIDs(req.StoreID, req.ProductID)
	if err != nil {
		return nil, err
	}

	unitCost := req.UnitCost
	m := &model.StockMovement{
		Type:       model.MovementArrival,
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   req.Quantity,
		UnitCost:   &unitCost,
		Reason:     req.Reason,
		RecordedBy: req.RecordedBy,
	}
	if req.ReferenceID != "" {
		refID, parseErr := uuid.Parse(req.ReferenceID)
		if parseErr != nil {
			return nil, newValidationError("reference_id", "must be a valid uuid")
		}
		m.ReferenceID = &refID
		m.ReferenceType = "reception"
	}
	return s.Append(ctx, m)
}

func (s *ledgerService) RecordLoss(ctx context.Context, req LossRequest) (*model.StockMovement, error) {
	storeID, productID, err := parsePairIDs(req.StoreID, req.ProductID)
	if err != nil {
		return nil, err
	}

	m := &model.StockMovement{
		Type:         model.MovementLoss,
		StoreID:      storeID,
		ProductID:    productID,
		Quantity:     -req.Quantity,
		LossCategory: req.Category,
		Reason:       req.Reason,
		RecordedBy:   req.RecordedBy,
	}
	return s.Append(ctx, m)
}

func (s *ledgerService) RecordAdjustment(ctx context.Context, req AdjustmentRequest) (*model.StockMovement, error) {
	storeID, productID, err := parsePairIDs(req.StoreID, req.ProductID)
	if err != nil {
		return nil, err
	}

	m := &model.StockMovement{
		Type:       model.MovementAdjustment,
		StoreID:    storeID,
		ProductID:  productID,
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		RecordedBy: req.RecordedBy,
	}
	return s.Append(ctx, m)
}

// ValidateReception appends one arrival per delivery line, priced from the
// cost map. Lines are appended independently; a failing line aborts the
// remainder and reports which line failed.
func (s *ledgerService) ValidateReception(ctx context.Context, req ReceptionRequest) ([]model.StockMovement, error) {
	receptionID, err := uuid.Parse(req.ReceptionID)
	if err != nil {
		return nil, newValidationError("reception_id", "must be a valid uuid")
	}

	appended := make([]model.StockMovement, 0, len(req.Lines))
	for i, line := range req.Lines {
		unitCost, ok := req.CostMap[line.ProductID]
		if !ok {
			return appended, newValidationError("cost_map", fmt.Sprintf("missing unit cost for product %s", line.ProductID))
		}

		storeID, productID, parseErr := parsePairIDs(req.StoreID, line.ProductID)
		if parseErr != nil {
			return appended, parseErr
		}

		cost := unitCost
		m := &model.StockMovement{
			Type:          model.MovementArrival,
			StoreID:       storeID,
			ProductID:     productID,
			Quantity:      line.Quantity,
			UnitCost:      &cost,
			ReferenceID:   &receptionID,
			ReferenceType: "reception",
			RecordedBy:    req.RecordedBy,
		}
		if _, err := s.Append(ctx, m); err != nil {
			return appended, fmt.Errorf("reception line %d: %w", i+1, err)
		}
		appended = append(appended, *m)
	}
	return appended, nil
}

func (s *ledgerService) Movements(ctx context.Context, storeID uuid.UUID, start, end *time.Time, page, limit int) ([]model.StockMovement, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.movements.ListByStore(ctx, storeID, start, end, page, limit)
}

func parsePairIDs(store, product string) (uuid.UUID, uuid.UUID, error) {
	storeID, err := uuid.Parse(store)
	if err != nil {
		return uuid.Nil, uuid.Nil, newValidationError("store_id", "must be a valid uuid")
	}
	productID, err := uuid.Parse(product)
	if err != nil {
		return uuid.Nil, uuid.Nil, newValidationError("product_id", "must be a valid uuid")
	}
	return storeID, productID, nil
}
