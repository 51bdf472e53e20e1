package service

import (
	"context"
	"time"

	"backend/internal/repository"

	"go.uber.org/zap"
)

// VarianceScheduler runs the anomaly detection pass for every store on a
// fixed interval. Each pass is independent per store and cancellable via
// the start context; de-duplication in the detector makes an interrupted
// pass safe to rerun.
type VarianceScheduler struct {
	variance VarianceService
	stores   repository.StoreRepository
	interval time.Duration
	log      *zap.Logger
	stopCh   chan struct{}
}

func NewVarianceScheduler(variance VarianceService, stores repository.StoreRepository, interval time.Duration, log *zap.Logger) *VarianceScheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &VarianceScheduler{
		variance: variance,
		stores:   stores,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic scan loop.
func (s *VarianceScheduler) Start(ctx context.Context) {
	s.log.Info("starting variance scheduler", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

// Stop terminates the loop; a scan in flight finishes its current store.
func (s *VarianceScheduler) Stop() {
	s.log.Info("stopping variance scheduler")
	close(s.stopCh)
}

func (s *VarianceScheduler) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.ScanAll(ctx)
		case <-s.stopCh:
			s.log.Info("variance scheduler stopped")
			return
		case <-ctx.Done():
			s.log.Info("variance scheduler cancelled")
			return
		}
	}
}

// ScanAll runs one detection pass over every store.
func (s *VarianceScheduler) ScanAll(ctx context.Context) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		s.log.Error("failed to list stores for variance scan", zap.Error(err))
		return
	}

	for _, store := range stores {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.variance.RunAnalysis(ctx, store.ID); err != nil {
			s.log.Error("variance scan failed",
				zap.String("store_id", store.ID.String()),
				zap.Error(err),
			)
		}
	}
}
