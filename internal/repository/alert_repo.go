package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AlertRepository stores variance alerts. Alerts are created open and only
// ever transition to resolved; they are never deleted.
type AlertRepository interface {
	Create(ctx context.Context, alert *model.VarianceAlert) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.VarianceAlert, error)
	// FindOpen returns the unresolved alert matching (type, store, product),
	// productID nil meaning a store-level alert. ErrNotFound when there is none.
	FindOpen(ctx context.Context, alertType string, storeID uuid.UUID, productID *uuid.UUID) (*model.VarianceAlert, error)
	ListActive(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error)
	ListSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]model.VarianceAlert, error)
	Update(ctx context.Context, alert *model.VarianceAlert) error
}

type alertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *model.VarianceAlert) error {
	return GetDB(ctx, r.db).Create(alert).Error
}

func (r *alertRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.VarianceAlert, error) {
	var alert model.VarianceAlert
	if err := GetDB(ctx, r.db).First(&alert, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) FindOpen(ctx context.Context, alertType string, storeID uuid.UUID, productID *uuid.UUID) (*model.VarianceAlert, error) {
	db := GetDB(ctx, r.db).
		Where("type = ? AND store_id = ? AND is_resolved = false", alertType, storeID)
	if productID == nil {
		db = db.Where("product_id IS NULL")
	} else {
		db = db.Where("product_id = ?", *productID)
	}

	var alert model.VarianceAlert
	if err := db.First(&alert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) ListActive(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error) {
	var alerts []model.VarianceAlert
	err := GetDB(ctx, r.db).
		Where("store_id = ? AND is_resolved = false", storeID).
		Order("detected_at desc").
		Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) ListSince(ctx context.Context, storeID uuid.UUID, since time.Time) ([]model.VarianceAlert, error) {
	var alerts []model.VarianceAlert
	err := GetDB(ctx, r.db).
		Where("store_id = ? AND detected_at >= ?", storeID, since).
		Order("detected_at desc").
		Find(&alerts).Error
	return alerts, err
}

func (r *alertRepository) Update(ctx context.Context, alert *model.VarianceAlert) error {
	return GetDB(ctx, r.db).Save(alert).Error
}
