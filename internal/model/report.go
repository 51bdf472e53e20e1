package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// EnrichedStockLevel combines a stock level with its consumption forecast
type EnrichedStockLevel struct {
	StockLevel
	FlowRatePerDay float64 `json:"flow_rate_per_day"`
	DaysOfStock    float64 `json:"days_of_stock"` // +Inf when there is no outflow
	AlertLevel     string  `json:"alert_level"`
}

// MarshalJSON serializes an infinite days-of-stock as null; encoding/json
// cannot represent +Inf.
func (e EnrichedStockLevel) MarshalJSON() ([]byte, error) {
	type enrichedAlias EnrichedStockLevel
	var days *float64
	if !math.IsInf(e.DaysOfStock, 1) {
		days = &e.DaysOfStock
	}
	return json.Marshal(struct {
		enrichedAlias
		DaysOfStock *float64 `json:"days_of_stock"`
	}{enrichedAlias(e), days})
}

// LossRateReport aggregates losses against arrivals over a period
type LossRateReport struct {
	StoreID          uuid.UUID          `json:"store_id"`
	PeriodStart      time.Time          `json:"period_start"`
	PeriodEnd        time.Time          `json:"period_end"`
	TotalArrivals    float64            `json:"total_arrivals"`
	TotalLosses      float64            `json:"total_losses"`
	LossRatePct      float64            `json:"loss_rate_pct"`
	LossesByReason   map[string]float64 `json:"losses_by_reason"`
	SpoilageSharePct float64            `json:"spoilage_share_pct"`
}

// AlertStatistics summarizes alert activity over a trailing window
type AlertStatistics struct {
	StoreID    uuid.UUID      `json:"store_id"`
	Days       int            `json:"days"`
	Total      int            `json:"total"`
	Open       int            `json:"open"`
	Resolved   int            `json:"resolved"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
}
