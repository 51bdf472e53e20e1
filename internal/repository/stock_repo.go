package repository

import (
	"context"
	"errors"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockLevelRepository stores the derived (store, product) stock projection.
type StockLevelRepository interface {
	Get(ctx context.Context, storeID, productID uuid.UUID) (*model.StockLevel, error)
	Save(ctx context.Context, level *model.StockLevel) error
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.StockLevel, error)
}

type stockLevelRepository struct {
	db *gorm.DB
}

func NewStockLevelRepository(db *gorm.DB) StockLevelRepository {
	return &stockLevelRepository{db: db}
}

func (r *stockLevelRepository) Get(ctx context.Context, storeID, productID uuid.UUID) (*model.StockLevel, error) {
	var level model.StockLevel
	err := GetDB(ctx, r.db).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

func (r *stockLevelRepository) Save(ctx context.Context, level *model.StockLevel) error {
	return GetDB(ctx, r.db).Save(level).Error
}

func (r *stockLevelRepository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.StockLevel, error) {
	var levels []model.StockLevel
	err := GetDB(ctx, r.db).
		Where("store_id = ?", storeID).
		Order("last_updated desc").
		Find(&levels).Error
	return levels, err
}

// AverageCostRepository stores the weighted-average unit cost per
// (store, product).
type AverageCostRepository interface {
	Get(ctx context.Context, storeID, productID uuid.UUID) (*model.AverageCost, error)
	Save(ctx context.Context, cost *model.AverageCost) error
}

type averageCostRepository struct {
	db *gorm.DB
}

func NewAverageCostRepository(db *gorm.DB) AverageCostRepository {
	return &averageCostRepository{db: db}
}

func (r *averageCostRepository) Get(ctx context.Context, storeID, productID uuid.UUID) (*model.AverageCost, error) {
	var cost model.AverageCost
	err := GetDB(ctx, r.db).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&cost).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cost, nil
}

func (r *averageCostRepository) Save(ctx context.Context, cost *model.AverageCost) error {
	return GetDB(ctx, r.db).Save(cost).Error
}
