package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the derived on-hand projection for one (store, product) pair.
// Quantity and ReservedQuantity never go below zero; AvailableQuantity is
// always recomputed from the other two, never written independently.
type StockLevel struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_level_store_product" json:"store_id"`
	ProductID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_level_store_product" json:"product_id"`
	Quantity          float64   `gorm:"type:decimal(12,3);default:0;not null" json:"quantity"`
	ReservedQuantity  float64   `gorm:"type:decimal(12,3);default:0;not null" json:"reserved_quantity"`
	AvailableQuantity float64   `gorm:"type:decimal(12,3);default:0;not null" json:"available_quantity"`
	LastUpdated       time.Time `json:"last_updated"`
}

// RecomputeAvailable refreshes AvailableQuantity from Quantity and
// ReservedQuantity, clamped at zero.
func (l *StockLevel) RecomputeAvailable() {
	l.AvailableQuantity = l.Quantity - l.ReservedQuantity
	if l.AvailableQuantity < 0 {
		l.AvailableQuantity = 0
	}
}

// AverageCost holds the weighted-average unit cost (CUMP) for one
// (store, product) pair. It is updated only by arrival movements.
type AverageCost struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StoreID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cost_store_product" json:"store_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cost_store_product" json:"product_id"`
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,4);not null" json:"unit_cost"`
	UpdatedAt time.Time       `json:"updated_at"`
}
