package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AlertType Enum Simulation
const (
	AlertCriticalStock = "critical_stock"
	AlertLowStock      = "low_stock"
	AlertOverstock     = "overstock"
	AlertAbnormalLoss  = "abnormal_loss"
	AlertUnusualFlow   = "unusual_flow"
)

// AlertSeverity constants
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// AlertDetails carries the derived numbers behind an alert. All values are
// computed by a detection pass, never hand-set.
type AlertDetails struct {
	CurrentValue       float64 `gorm:"type:decimal(14,4)" json:"current_value"`
	ExpectedValue      float64 `gorm:"type:decimal(14,4)" json:"expected_value"`
	Variance           float64 `gorm:"type:decimal(14,4)" json:"variance"`
	VariancePercentage float64 `gorm:"type:decimal(14,4)" json:"variance_percentage"`
	Threshold          float64 `gorm:"type:decimal(14,4)" json:"threshold"`
}

// VarianceAlert is an open-until-resolved anomaly flag. ProductID is nil for
// store-level alerts (e.g. aggregate loss rate).
type VarianceAlert struct {
	ID         uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type       string       `gorm:"type:varchar(30);not null;index" json:"type"`
	Severity   string       `gorm:"type:varchar(10);not null" json:"severity"`
	StoreID    uuid.UUID    `gorm:"type:uuid;not null;index" json:"store_id"`
	ProductID  *uuid.UUID   `gorm:"type:uuid;index" json:"product_id,omitempty"`
	Details    AlertDetails `gorm:"embedded;embeddedPrefix:detail_" json:"details"`
	DetectedAt time.Time    `gorm:"not null;index" json:"detected_at"`
	IsResolved bool         `gorm:"default:false;index" json:"is_resolved"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy string       `gorm:"type:varchar(100)" json:"resolved_by,omitempty"`
}

// StockThresholds configures days-of-stock alert classification.
// Ordering Critical < Low < Overstock is mandatory.
type StockThresholds struct {
	Critical  float64 `json:"critical"`
	Low       float64 `json:"low"`
	Overstock float64 `json:"overstock"`
}

// Validate rejects threshold configurations that break the
// critical < low < overstock ordering.
func (t StockThresholds) Validate() error {
	if t.Critical >= t.Low || t.Low >= t.Overstock {
		return fmt.Errorf("stock thresholds must satisfy critical < low < overstock, got {%.2f, %.2f, %.2f}",
			t.Critical, t.Low, t.Overstock)
	}
	return nil
}

// DefaultStockThresholds are the classification defaults, in days of stock.
var DefaultStockThresholds = StockThresholds{Critical: 2, Low: 7, Overstock: 30}

// AnomalyThresholds configures the variance detector.
type AnomalyThresholds struct {
	LossRateWarning     float64 `json:"loss_rate_warning"`     // percent
	LossRateCritical    float64 `json:"loss_rate_critical"`    // percent
	FlowVariancePct     float64 `json:"flow_variance_pct"`     // percent
	DailyLossMultiplier float64 `json:"daily_loss_multiplier"` // x average
}

// Validate rejects inconsistent anomaly thresholds.
func (t AnomalyThresholds) Validate() error {
	if t.LossRateWarning <= 0 {
		return fmt.Errorf("anomaly thresholds lossRateWarning must be positive, got %.2f", t.LossRateWarning)
	}
	if t.LossRateWarning >= t.LossRateCritical {
		return fmt.Errorf("anomaly thresholds must satisfy lossRateWarning < lossRateCritical, got {%.2f, %.2f}",
			t.LossRateWarning, t.LossRateCritical)
	}
	if t.FlowVariancePct <= 0 || t.DailyLossMultiplier <= 0 {
		return fmt.Errorf("anomaly thresholds flowVariancePct and dailyLossMultiplier must be positive")
	}
	return nil
}

// DefaultAnomalyThresholds are the detector defaults.
var DefaultAnomalyThresholds = AnomalyThresholds{
	LossRateWarning:     10,
	LossRateCritical:    20,
	FlowVariancePct:     50,
	DailyLossMultiplier: 3,
}

// Stock classification levels derived from days-of-stock
const (
	StockLevelCritical  = "critical"
	StockLevelLow       = "low"
	StockLevelOverstock = "overstock"
	StockLevelNormal    = "normal"
)

// StockLevelPriority maps a classification level to its display sort rank,
// most urgent first.
func StockLevelPriority(level string) int {
	switch level {
	case StockLevelCritical:
		return 0
	case StockLevelLow:
		return 1
	case StockLevelOverstock:
		return 2
	default:
		return 3
	}
}
