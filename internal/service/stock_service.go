package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockEvent is the websocket payload broadcast on stock changes
type StockEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// StockService maintains the derived per-(store, product) stock projection.
// All writes go through the shared KeyedMutex; reads are snapshot reads.
type StockService struct {
	levels repository.StockLevelRepository
	locks  *KeyedMutex
	hub    *ws.Hub
	log    *zap.Logger
	now    func() time.Time
}

func NewStockService(levels repository.StockLevelRepository, locks *KeyedMutex, hub *ws.Hub, log *zap.Logger) *StockService {
	return &StockService{
		levels: levels,
		locks:  locks,
		hub:    hub,
		log:    log,
		now:    time.Now,
	}
}

// applyMovement is the pure projector transition. A negative result is
// clamped to zero; the clamped amount is returned so callers can surface
// the discrepancy instead of absorbing it silently.
func applyMovement(level model.StockLevel, m *model.StockMovement, at time.Time) (model.StockLevel, float64) {
	level.Quantity += m.Quantity

	var clampedBy float64
	if level.Quantity < 0 {
		clampedBy = -level.Quantity
		level.Quantity = 0
	}

	level.RecomputeAvailable()
	level.LastUpdated = at
	return level, clampedBy
}

// levelOrNew returns the stored level or a fresh zero level; levels are
// created lazily on the first movement for a pair and never deleted.
func (s *StockService) levelOrNew(ctx context.Context, storeID, productID uuid.UUID) (*model.StockLevel, error) {
	level, err := s.levels.Get(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.StockLevel{StoreID: storeID, ProductID: productID}, nil
		}
		return nil, err
	}
	return level, nil
}

// apply folds one movement into the projection and returns the pre-movement
// quantity (the costing engine needs it). The caller must hold the key lock.
func (s *StockService) apply(ctx context.Context, m *model.StockMovement) (float64, error) {
	level, err := s.levelOrNew(ctx, m.StoreID, m.ProductID)
	if err != nil {
		return 0, err
	}
	prevQty := level.Quantity

	next, clampedBy := applyMovement(*level, m, s.now())
	if clampedBy > 0 {
		s.log.Warn("stock quantity clamped to zero on over-issue",
			zap.String("store_id", m.StoreID.String()),
			zap.String("product_id", m.ProductID.String()),
			zap.String("movement_id", m.ID.String()),
			zap.Float64("clamped_by", clampedBy),
		)
		s.broadcast("stock.discrepancy", map[string]interface{}{
			"store_id":    m.StoreID.String(),
			"product_id":  m.ProductID.String(),
			"movement_id": m.ID.String(),
			"clamped_by":  clampedBy,
		})
	}

	if err := s.levels.Save(ctx, &next); err != nil {
		return 0, err
	}
	return prevQty, nil
}

// Reserve adjusts the reserved quantity for a pair by delta (positive when
// committing stock to an outbound transfer, negative when releasing it).
// Reserved never goes below zero.
func (s *StockService) Reserve(ctx context.Context, storeID, productID uuid.UUID, delta float64) (*model.StockLevel, error) {
	unlock := s.locks.Lock(storeID, productID)
	defer unlock()

	level, err := s.levelOrNew(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	level.ReservedQuantity += delta
	if level.ReservedQuantity < 0 {
		s.log.Warn("reserved quantity clamped to zero",
			zap.String("store_id", storeID.String()),
			zap.String("product_id", productID.String()),
			zap.Float64("clamped_by", -level.ReservedQuantity),
		)
		level.ReservedQuantity = 0
	}
	level.RecomputeAvailable()
	level.LastUpdated = s.now()

	if err := s.levels.Save(ctx, level); err != nil {
		return nil, err
	}
	return level, nil
}

// CurrentStock returns a snapshot of all levels of a store.
func (s *StockService) CurrentStock(ctx context.Context, storeID uuid.UUID) ([]model.StockLevel, error) {
	return s.levels.ListByStore(ctx, storeID)
}

// Level returns the level for one pair; an unknown pair yields a zero level,
// since "no history yet" is a normal state for a new product.
func (s *StockService) Level(ctx context.Context, storeID, productID uuid.UUID) (*model.StockLevel, error) {
	level, err := s.levels.Get(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.StockLevel{StoreID: storeID, ProductID: productID}, nil
		}
		return nil, err
	}
	return level, nil
}

func (s *StockService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(StockEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	select {
	case s.hub.Broadcast <- payload:
	default:
		s.log.Debug("websocket broadcast dropped", zap.String("event", event))
	}
}
