package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementRepository is the append-only ledger store. There is deliberately
// no Update or Delete: corrections are compensating movements.
type MovementRepository interface {
	Append(ctx context.Context, m *model.StockMovement) error
	ListByStore(ctx context.Context, storeID uuid.UUID, start, end *time.Time, page, limit int) ([]model.StockMovement, int64, error)
	// OutflowTotal sums |quantity| of outflow movements (losses or any
	// negative quantity) for one product over [start, end).
	OutflowTotal(ctx context.Context, storeID, productID uuid.UUID, start, end time.Time) (float64, error)
	// ArrivalTotal sums arrival quantities for a store over [start, end).
	ArrivalTotal(ctx context.Context, storeID uuid.UUID, start, end time.Time) (float64, error)
	// LossTotal sums |quantity| of loss movements for a store over [start, end).
	LossTotal(ctx context.Context, storeID uuid.UUID, start, end time.Time) (float64, error)
	// LossTotalsByCategory breaks loss quantities down per loss category.
	LossTotalsByCategory(ctx context.Context, storeID uuid.UUID, start, end time.Time) (map[string]float64, error)
	// ActiveProductIDs lists products with at least one movement in [start, end).
	ActiveProductIDs(ctx context.Context, storeID uuid.UUID, start, end time.Time) ([]uuid.UUID, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Append(ctx context.Context, m *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *movementRepository) ListByStore(ctx context.Context, storeID uuid.UUID, start, end *time.Time, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("store_id = ?", storeID)
	if start != nil {
		db = db.Where("recorded_at >= ?", *start)
	}
	if end != nil {
		db = db.Where("recorded_at < ?", *end)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("recorded_at desc").Offset(offset).Limit(limit).Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *movementRepository) OutflowTotal(ctx context.Context, storeID, productID uuid.UUID, start, end time.Time) (float64, error) {
	var result struct {
		Total float64
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(ABS(quantity)), 0) as total").
		Where("store_id = ? AND product_id = ?", storeID, productID).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Where("type = ? OR quantity < 0", model.MovementLoss).
		Scan(&result).Error
	return result.Total, err
}

func (r *movementRepository) ArrivalTotal(ctx context.Context, storeID uuid.UUID, start, end time.Time) (float64, error) {
	var result struct {
		Total float64
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(quantity), 0) as total").
		Where("store_id = ? AND type = ?", storeID, model.MovementArrival).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Scan(&result).Error
	return result.Total, err
}

func (r *movementRepository) LossTotal(ctx context.Context, storeID uuid.UUID, start, end time.Time) (float64, error) {
	var result struct {
		Total float64
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("COALESCE(SUM(ABS(quantity)), 0) as total").
		Where("store_id = ? AND type = ?", storeID, model.MovementLoss).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Scan(&result).Error
	return result.Total, err
}

func (r *movementRepository) LossTotalsByCategory(ctx context.Context, storeID uuid.UUID, start, end time.Time) (map[string]float64, error) {
	var rows []struct {
		LossCategory string
		Total        float64
	}
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Select("loss_category, COALESCE(SUM(ABS(quantity)), 0) as total").
		Where("store_id = ? AND type = ?", storeID, model.MovementLoss).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Group("loss_category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.LossCategory] = row.Total
	}
	return totals, nil
}

func (r *movementRepository) ActiveProductIDs(ctx context.Context, storeID uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.StockMovement{}).
		Distinct("product_id").
		Where("store_id = ?", storeID).
		Where("recorded_at >= ? AND recorded_at < ?", start, end).
		Pluck("product_id", &ids).Error
	return ids, err
}
