package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// DefaultFlowWindowDays is the trailing window for consumption estimates.
const DefaultFlowWindowDays = 30

// ForecastService estimates daily consumption from recent outflow and
// projects days of stock remaining.
type ForecastService interface {
	// FlowRate returns average units/day of outflow over the trailing
	// window; zero when the pair has no outflow history.
	FlowRate(ctx context.Context, storeID, productID uuid.UUID, windowDays int) (float64, error)
	// EnrichedStockLevels returns every level of a store with flow rate,
	// days of stock and classification, sorted most urgent first.
	EnrichedStockLevels(ctx context.Context, storeID uuid.UUID, thresholds model.StockThresholds) ([]model.EnrichedStockLevel, error)
	// CheckStockAlerts returns only the non-normal classifications.
	CheckStockAlerts(ctx context.Context, storeID uuid.UUID, thresholds model.StockThresholds) ([]model.EnrichedStockLevel, error)
}

type forecastService struct {
	movements repository.MovementRepository
	levels    repository.StockLevelRepository
	now       func() time.Time
}

func NewForecastService(movements repository.MovementRepository, levels repository.StockLevelRepository) ForecastService {
	return &forecastService{movements: movements, levels: levels, now: time.Now}
}

// DaysOfStock projects depletion. A zero flow rate yields +Inf, which must
// stay comparable (it classifies past the overstock threshold, never NaN).
func DaysOfStock(available, flowRate float64) float64 {
	if flowRate == 0 {
		return math.Inf(1)
	}
	return available / flowRate
}

// ClassifyDaysOfStock maps days of stock to an alert level. Evaluation
// order is fixed, first match wins.
func ClassifyDaysOfStock(days float64, t model.StockThresholds) string {
	switch {
	case days <= t.Critical:
		return model.StockLevelCritical
	case days <= t.Low:
		return model.StockLevelLow
	case days > t.Overstock:
		return model.StockLevelOverstock
	default:
		return model.StockLevelNormal
	}
}

func (s *forecastService) FlowRate(ctx context.Context, storeID, productID uuid.UUID, windowDays int) (float64, error) {
	if windowDays <= 0 {
		windowDays = DefaultFlowWindowDays
	}
	now := s.now()
	total, err := s.movements.OutflowTotal(ctx, storeID, productID, now.AddDate(0, 0, -windowDays), now)
	if err != nil {
		return 0, err
	}
	return total / float64(windowDays), nil
}

func (s *forecastService) EnrichedStockLevels(ctx context.Context, storeID uuid.UUID, thresholds model.StockThresholds) ([]model.EnrichedStockLevel, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}

	levels, err := s.levels.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	enriched := make([]model.EnrichedStockLevel, 0, len(levels))
	for _, level := range levels {
		rate, err := s.FlowRate(ctx, level.StoreID, level.ProductID, DefaultFlowWindowDays)
		if err != nil {
			return nil, err
		}
		days := DaysOfStock(level.AvailableQuantity, rate)
		enriched = append(enriched, model.EnrichedStockLevel{
			StockLevel:     level,
			FlowRatePerDay: rate,
			DaysOfStock:    days,
			AlertLevel:     ClassifyDaysOfStock(days, thresholds),
		})
	}
	sortByUrgency(enriched)
	return enriched, nil
}

func (s *forecastService) CheckStockAlerts(ctx context.Context, storeID uuid.UUID, thresholds model.StockThresholds) ([]model.EnrichedStockLevel, error) {
	enriched, err := s.EnrichedStockLevels(ctx, storeID, thresholds)
	if err != nil {
		return nil, err
	}

	alerts := enriched[:0]
	for _, e := range enriched {
		if e.AlertLevel != model.StockLevelNormal {
			alerts = append(alerts, e)
		}
	}
	return alerts, nil
}

// sortByUrgency orders by classification priority, then ascending days of
// stock within the same level.
func sortByUrgency(levels []model.EnrichedStockLevel) {
	sort.SliceStable(levels, func(i, j int) bool {
		pi, pj := model.StockLevelPriority(levels[i].AlertLevel), model.StockLevelPriority(levels[j].AlertLevel)
		if pi != pj {
			return pi < pj
		}
		return levels[i].DaysOfStock < levels[j].DaysOfStock
	})
}
