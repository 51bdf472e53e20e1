package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"backend/internal/model"
	"backend/internal/notify"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// lossPeriodDays is the trailing window of the loss-rate check.
	lossPeriodDays = 30
	// spoilageShareLimitPct flags periods where spoilage dominates losses.
	spoilageShareLimitPct = 70
	// severeFlowVariancePct upgrades an unusual_flow alert to high severity.
	severeFlowVariancePct = 80
	// spikeCriticalFactor upgrades a daily-loss spike to critical severity.
	spikeCriticalFactor = 1.5
)

// VarianceService compares current-period aggregates against historical
// baselines and raises severity-graded alerts with de-duplication.
type VarianceService interface {
	LossRates(ctx context.Context, storeID uuid.UUID, period string) (model.LossRateReport, error)
	// RunAnalysis executes one detection pass for a store and returns the
	// alerts it created (suppressed duplicates are not returned). The pass
	// is cancellable between checks via ctx.
	RunAnalysis(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error)
	ActiveAlerts(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error)
	ResolveAlert(ctx context.Context, id uuid.UUID, resolvedBy string) (*model.VarianceAlert, error)
	AlertStatistics(ctx context.Context, storeID uuid.UUID, days int) (model.AlertStatistics, error)
}

type varianceService struct {
	movements  repository.MovementRepository
	alerts     repository.AlertRepository
	stores     repository.StoreRepository
	products   repository.ProductRepository
	thresholds model.AnomalyThresholds
	notifier   notify.Notifier
	log        *zap.Logger
	now        func() time.Time
}

// NewVarianceService fails fast on an inconsistent threshold configuration;
// thresholds are never re-checked at evaluation time.
func NewVarianceService(
	movements repository.MovementRepository,
	alerts repository.AlertRepository,
	stores repository.StoreRepository,
	products repository.ProductRepository,
	thresholds model.AnomalyThresholds,
	notifier notify.Notifier,
	log *zap.Logger,
) (VarianceService, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, err)
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &varianceService{
		movements:  movements,
		alerts:     alerts,
		stores:     stores,
		products:   products,
		thresholds: thresholds,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}, nil
}

func (s *varianceService) LossRates(ctx context.Context, storeID uuid.UUID, period string) (model.LossRateReport, error) {
	days := lossPeriodDays
	if period == "week" {
		days = 7
	}
	end := s.now()
	start := end.AddDate(0, 0, -days)

	arrivals, err := s.movements.ArrivalTotal(ctx, storeID, start, end)
	if err != nil {
		return model.LossRateReport{}, err
	}
	byCategory, err := s.movements.LossTotalsByCategory(ctx, storeID, start, end)
	if err != nil {
		return model.LossRateReport{}, err
	}

	var losses float64
	for _, v := range byCategory {
		losses += v
	}

	report := model.LossRateReport{
		StoreID:        storeID,
		PeriodStart:    start,
		PeriodEnd:      end,
		TotalArrivals:  arrivals,
		TotalLosses:    losses,
		LossesByReason: byCategory,
	}
	if arrivals > 0 {
		report.LossRatePct = losses / arrivals * 100
	}
	if losses > 0 {
		report.SpoilageSharePct = byCategory[model.LossSpoilage] / losses * 100
	}
	return report, nil
}

func (s *varianceService) RunAnalysis(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error) {
	store, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}

	var created []model.VarianceAlert

	appendIfCreated := func(alert *model.VarianceAlert, err error) error {
		if err != nil {
			return err
		}
		if alert != nil {
			created = append(created, *alert)
		}
		return nil
	}

	if err := appendIfCreated(s.checkLossRate(ctx, store)); err != nil {
		return created, err
	}
	if err := ctx.Err(); err != nil {
		return created, err
	}

	flowAlerts, err := s.checkFlowVariance(ctx, store)
	created = append(created, flowAlerts...)
	if err != nil {
		return created, err
	}
	if err := ctx.Err(); err != nil {
		return created, err
	}

	if err := appendIfCreated(s.checkDailyLossSpike(ctx, store)); err != nil {
		return created, err
	}

	s.log.Info("variance analysis completed",
		zap.String("store_id", storeID.String()),
		zap.Int("alerts_created", len(created)),
	)
	return created, nil
}

// severityRank orders severities for candidate selection.
var severityRank = map[string]int{
	model.SeverityLow:      0,
	model.SeverityMedium:   1,
	model.SeverityHigh:     2,
	model.SeverityCritical: 3,
}

// checkLossRate flags stores whose trailing-period loss rate exceeds the
// configured thresholds, and independently flags spoilage-dominated losses.
// Both conditions share the (abnormal_loss, store) alert key, so when both
// fire in one pass the higher-severity candidate wins.
func (s *varianceService) checkLossRate(ctx context.Context, store *model.Store) (*model.VarianceAlert, error) {
	report, err := s.LossRates(ctx, store.ID, "month")
	if err != nil {
		return nil, err
	}

	var candidate *model.VarianceAlert

	if report.TotalArrivals > 0 {
		var severity string
		threshold := 0.0
		switch {
		case report.LossRatePct > s.thresholds.LossRateCritical:
			severity, threshold = model.SeverityCritical, s.thresholds.LossRateCritical
		case report.LossRatePct > s.thresholds.LossRateWarning:
			severity, threshold = model.SeverityMedium, s.thresholds.LossRateWarning
		}
		if severity != "" {
			candidate = &model.VarianceAlert{
				Type:     model.AlertAbnormalLoss,
				Severity: severity,
				StoreID:  store.ID,
				Details: model.AlertDetails{
					CurrentValue:       report.LossRatePct,
					ExpectedValue:      threshold,
					Variance:           report.LossRatePct - threshold,
					VariancePercentage: (report.LossRatePct - threshold) / threshold * 100,
					Threshold:          threshold,
				},
			}
		}
	}

	if report.TotalLosses > 0 && report.SpoilageSharePct > spoilageShareLimitPct {
		spoilage := &model.VarianceAlert{
			Type:     model.AlertAbnormalLoss,
			Severity: model.SeverityHigh,
			StoreID:  store.ID,
			Details: model.AlertDetails{
				CurrentValue:       report.SpoilageSharePct,
				ExpectedValue:      spoilageShareLimitPct,
				Variance:           report.SpoilageSharePct - spoilageShareLimitPct,
				VariancePercentage: (report.SpoilageSharePct - spoilageShareLimitPct) / spoilageShareLimitPct * 100,
				Threshold:          spoilageShareLimitPct,
			},
		}
		if candidate == nil || severityRank[spoilage.Severity] > severityRank[candidate.Severity] {
			candidate = spoilage
		}
	}

	if candidate == nil {
		return nil, nil
	}
	return s.raise(ctx, store, candidate)
}

// checkFlowVariance compares every active product's current 30-day flow
// rate against the prior, non-overlapping 30-day baseline window.
func (s *varianceService) checkFlowVariance(ctx context.Context, store *model.Store) ([]model.VarianceAlert, error) {
	now := s.now()
	currentStart := now.AddDate(0, 0, -DefaultFlowWindowDays)
	baselineStart := now.AddDate(0, 0, -2*DefaultFlowWindowDays)

	// Enumerate over both windows: a product whose outflow stopped
	// completely has no current movements but still needs the comparison.
	productIDs, err := s.movements.ActiveProductIDs(ctx, store.ID, baselineStart, now)
	if err != nil {
		return nil, err
	}

	var created []model.VarianceAlert
	for _, productID := range productIDs {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		currentTotal, err := s.movements.OutflowTotal(ctx, store.ID, productID, currentStart, now)
		if err != nil {
			return created, err
		}
		baselineTotal, err := s.movements.OutflowTotal(ctx, store.ID, productID, baselineStart, currentStart)
		if err != nil {
			return created, err
		}

		current := currentTotal / DefaultFlowWindowDays
		baseline := baselineTotal / DefaultFlowWindowDays
		if baseline == 0 {
			// No history to compare against; a new product is not an anomaly.
			continue
		}

		variancePct := (current - baseline) / baseline * 100
		if math.Abs(variancePct) <= s.thresholds.FlowVariancePct {
			continue
		}

		severity := model.SeverityMedium
		if math.Abs(variancePct) > severeFlowVariancePct {
			severity = model.SeverityHigh
		}

		pid := productID
		alert, err := s.raise(ctx, store, &model.VarianceAlert{
			Type:      model.AlertUnusualFlow,
			Severity:  severity,
			StoreID:   store.ID,
			ProductID: &pid,
			Details: model.AlertDetails{
				CurrentValue:       current,
				ExpectedValue:      baseline,
				Variance:           current - baseline,
				VariancePercentage: variancePct,
				Threshold:          s.thresholds.FlowVariancePct,
			},
		})
		if err != nil {
			return created, err
		}
		if alert != nil {
			created = append(created, *alert)
		}
	}
	return created, nil
}

// checkDailyLossSpike compares today's loss volume against the trailing
// 30-day daily average.
func (s *varianceService) checkDailyLossSpike(ctx context.Context, store *model.Store) (*model.VarianceAlert, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.movements.LossTotal(ctx, store.ID, dayStart, now)
	if err != nil {
		return nil, err
	}
	trailing, err := s.movements.LossTotal(ctx, store.ID, dayStart.AddDate(0, 0, -lossPeriodDays), dayStart)
	if err != nil {
		return nil, err
	}

	average := trailing / lossPeriodDays
	if average <= 0 {
		return nil, nil
	}

	threshold := average * s.thresholds.DailyLossMultiplier
	if today <= threshold {
		return nil, nil
	}

	severity := model.SeverityHigh
	if today > threshold*spikeCriticalFactor {
		severity = model.SeverityCritical
	}

	return s.raise(ctx, store, &model.VarianceAlert{
		Type:     model.AlertAbnormalLoss,
		Severity: severity,
		StoreID:  store.ID,
		Details: model.AlertDetails{
			CurrentValue:       today,
			ExpectedValue:      average,
			Variance:           today - average,
			VariancePercentage: (today - average) / average * 100,
			Threshold:          threshold,
		},
	})
}

// raise persists a new alert unless an unresolved alert with the same
// (type, product, store) already exists, in which case it is suppressed.
// High and critical alerts are forwarded to the notifier exactly once, at
// creation time.
func (s *varianceService) raise(ctx context.Context, store *model.Store, alert *model.VarianceAlert) (*model.VarianceAlert, error) {
	existing, err := s.alerts.FindOpen(ctx, alert.Type, alert.StoreID, alert.ProductID)
	if err == nil && existing != nil {
		s.log.Debug("duplicate alert suppressed",
			zap.String("type", alert.Type),
			zap.String("store_id", alert.StoreID.String()),
		)
		return nil, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	alert.ID = uuid.New()
	alert.DetectedAt = s.now()
	if err := s.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	if alert.Severity == model.SeverityHigh || alert.Severity == model.SeverityCritical {
		subject := "store-wide"
		if alert.ProductID != nil {
			if product, err := s.products.FindByID(ctx, *alert.ProductID); err == nil {
				subject = product.Name
			} else {
				subject = alert.ProductID.String()
			}
		}
		if err := s.notifier.Send(alert.Type, subject, store.Name, alert.Details); err != nil {
			// Delivery failure must not fail the detection pass.
			s.log.Error("alert notification failed",
				zap.String("alert_id", alert.ID.String()),
				zap.Error(err),
			)
		}
	}
	return alert, nil
}

func (s *varianceService) ActiveAlerts(ctx context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error) {
	return s.alerts.ListActive(ctx, storeID)
}

func (s *varianceService) ResolveAlert(ctx context.Context, id uuid.UUID, resolvedBy string) (*model.VarianceAlert, error) {
	alert, err := s.alerts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}
	if alert.IsResolved {
		return nil, ErrAlertResolved
	}

	resolvedAt := s.now()
	alert.IsResolved = true
	alert.ResolvedAt = &resolvedAt
	alert.ResolvedBy = resolvedBy

	if err := s.alerts.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	return alert, nil
}

func (s *varianceService) AlertStatistics(ctx context.Context, storeID uuid.UUID, days int) (model.AlertStatistics, error) {
	if days <= 0 {
		days = lossPeriodDays
	}

	alerts, err := s.alerts.ListSince(ctx, storeID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return model.AlertStatistics{}, err
	}

	stats := model.AlertStatistics{
		StoreID:    storeID,
		Days:       days,
		Total:      len(alerts),
		ByType:     make(map[string]int),
		BySeverity: make(map[string]int),
	}
	for _, alert := range alerts {
		stats.ByType[alert.Type]++
		stats.BySeverity[alert.Severity]++
		if alert.IsResolved {
			stats.Resolved++
		} else {
			stats.Open++
		}
	}
	return stats, nil
}
