package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store represents a single fish-market branch
type Store struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	City      string         `gorm:"type:varchar(100)" json:"city"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Product represents a catalog item (fish, seafood, packaging...)
type Product struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU       string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Unit      string         `gorm:"type:varchar(20);default:'kg'" json:"unit"`
	Category  string         `gorm:"type:varchar(100)" json:"category"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
