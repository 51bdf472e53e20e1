package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType Enum Simulation
const (
	MovementArrival     = "arrival"
	MovementLoss        = "loss"
	MovementTransferOut = "transfer_out"
	MovementTransferIn  = "transfer_in"
	MovementAdjustment  = "adjustment"
)

// LossCategory constants
const (
	LossSpoilage  = "spoilage"
	LossDamage    = "damage"
	LossPromotion = "promotion"
)

// StockMovement is a single immutable ledger entry. Movements are only
// ever appended; a correction is a new compensating adjustment movement.
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type          string     `gorm:"type:varchar(20);not null;index" json:"type"`
	StoreID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_movement_store_product" json:"store_id"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_movement_store_product" json:"product_id"`
	Quantity      float64    `gorm:"type:decimal(12,3);not null" json:"quantity"`
	UnitCost      *float64   `gorm:"type:decimal(12,4)" json:"unit_cost,omitempty"`
	LossCategory  string     `gorm:"type:varchar(20)" json:"loss_category,omitempty"`
	Reason        string     `gorm:"type:text" json:"reason,omitempty"`
	ReferenceID   *uuid.UUID `gorm:"type:uuid;index" json:"reference_id,omitempty"`
	ReferenceType string     `gorm:"type:varchar(50)" json:"reference_type,omitempty"`
	RecordedBy    string     `gorm:"type:varchar(100)" json:"recorded_by"`
	RecordedAt    time.Time  `gorm:"not null;index" json:"recorded_at"`
}

// IsOutflow reports whether the movement removes stock from a store.
func (m *StockMovement) IsOutflow() bool {
	return m.Type == MovementLoss || m.Quantity < 0
}

// ValidLossCategory reports whether c is one of the known loss categories.
func ValidLossCategory(c string) bool {
	switch c {
	case LossSpoilage, LossDamage, LossPromotion:
		return true
	}
	return false
}

// ValidMovementType reports whether t is one of the known movement types.
func ValidMovementType(t string) bool {
	switch t {
	case MovementArrival, MovementLoss, MovementTransferOut, MovementTransferIn, MovementAdjustment:
		return true
	}
	return false
}
