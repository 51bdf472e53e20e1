// Package memory provides an in-memory implementation of the repository
// interfaces. It backs the test suite and a database-less demo mode; the
// production backend is PostgreSQL via GORM.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

type levelKey struct {
	storeID   uuid.UUID
	productID uuid.UUID
}

// Store holds all in-memory state behind a single RWMutex.
type Store struct {
	mu        sync.RWMutex
	movements []model.StockMovement
	levels    map[levelKey]model.StockLevel
	costs     map[levelKey]model.AverageCost
	alerts    map[uuid.UUID]model.VarianceAlert
	products  map[uuid.UUID]model.Product
	stores    map[uuid.UUID]model.Store
}

func New() *Store {
	return &Store{
		levels:   make(map[levelKey]model.StockLevel),
		costs:    make(map[levelKey]model.AverageCost),
		alerts:   make(map[uuid.UUID]model.VarianceAlert),
		products: make(map[uuid.UUID]model.Product),
		stores:   make(map[uuid.UUID]model.Store),
	}
}

// Repository views. Each shares the parent Store's data and lock.

func (s *Store) Movements() repository.MovementRepository { return &movementRepo{s} }
func (s *Store) Levels() repository.StockLevelRepository  { return &levelRepo{s} }
func (s *Store) Costs() repository.AverageCostRepository  { return &costRepo{s} }
func (s *Store) Alerts() repository.AlertRepository       { return &alertRepo{s} }
func (s *Store) Products() repository.ProductRepository   { return &productRepo{s} }
func (s *Store) Stores() repository.StoreRepository       { return &storeRepo{s} }
func (s *Store) TxManager() repository.TransactionManager { return txManager{} }

// txManager runs the function directly; the in-memory store has no
// transactional rollback.
type txManager struct{}

func (txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type movementRepo struct{ s *Store }

func (r *movementRepo) Append(_ context.Context, m *model.StockMovement) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.s.movements = append(r.s.movements, *m)
	return nil
}

func (r *movementRepo) ListByStore(_ context.Context, storeID uuid.UUID, start, end *time.Time, page, limit int) ([]model.StockMovement, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []model.StockMovement
	for _, m := range r.s.movements {
		if m.StoreID != storeID {
			continue
		}
		if start != nil && m.RecordedAt.Before(*start) {
			continue
		}
		if end != nil && !m.RecordedAt.Before(*end) {
			continue
		}
		matched = append(matched, m)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].RecordedAt.After(matched[j].RecordedAt)
	})

	total := int64(len(matched))
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []model.StockMovement{}, total, nil
	}
	endIdx := offset + limit
	if endIdx > len(matched) {
		endIdx = len(matched)
	}
	return matched[offset:endIdx], total, nil
}

func (r *movementRepo) OutflowTotal(_ context.Context, storeID, productID uuid.UUID, start, end time.Time) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total float64
	for _, m := range r.s.movements {
		if m.StoreID != storeID || m.ProductID != productID {
			continue
		}
		if m.RecordedAt.Before(start) || !m.RecordedAt.Before(end) {
			continue
		}
		if !m.IsOutflow() {
			continue
		}
		if m.Quantity < 0 {
			total -= m.Quantity
		} else {
			total += m.Quantity
		}
	}
	return total, nil
}

func (r *movementRepo) ArrivalTotal(_ context.Context, storeID uuid.UUID, start, end time.Time) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total float64
	for _, m := range r.s.movements {
		if m.StoreID == storeID && m.Type == model.MovementArrival &&
			!m.RecordedAt.Before(start) && m.RecordedAt.Before(end) {
			total += m.Quantity
		}
	}
	return total, nil
}

func (r *movementRepo) LossTotal(_ context.Context, storeID uuid.UUID, start, end time.Time) (float64, error) {
	totals, err := r.LossTotalsByCategory(context.Background(), storeID, start, end)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range totals {
		total += v
	}
	return total, nil
}

func (r *movementRepo) LossTotalsByCategory(_ context.Context, storeID uuid.UUID, start, end time.Time) (map[string]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := make(map[string]float64)
	for _, m := range r.s.movements {
		if m.StoreID != storeID || m.Type != model.MovementLoss {
			continue
		}
		if m.RecordedAt.Before(start) || !m.RecordedAt.Before(end) {
			continue
		}
		qty := m.Quantity
		if qty < 0 {
			qty = -qty
		}
		totals[m.LossCategory] += qty
	}
	return totals, nil
}

func (r *movementRepo) ActiveProductIDs(_ context.Context, storeID uuid.UUID, start, end time.Time) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, m := range r.s.movements {
		if m.StoreID != storeID || seen[m.ProductID] {
			continue
		}
		if m.RecordedAt.Before(start) || !m.RecordedAt.Before(end) {
			continue
		}
		seen[m.ProductID] = true
		ids = append(ids, m.ProductID)
	}
	return ids, nil
}

type levelRepo struct{ s *Store }

func (r *levelRepo) Get(_ context.Context, storeID, productID uuid.UUID) (*model.StockLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	level, ok := r.s.levels[levelKey{storeID, productID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &level, nil
}

func (r *levelRepo) Save(_ context.Context, level *model.StockLevel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if level.ID == uuid.Nil {
		level.ID = uuid.New()
	}
	r.s.levels[levelKey{level.StoreID, level.ProductID}] = *level
	return nil
}

func (r *levelRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]model.StockLevel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var levels []model.StockLevel
	for key, level := range r.s.levels {
		if key.storeID == storeID {
			levels = append(levels, level)
		}
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].LastUpdated.After(levels[j].LastUpdated)
	})
	return levels, nil
}

type costRepo struct{ s *Store }

func (r *costRepo) Get(_ context.Context, storeID, productID uuid.UUID) (*model.AverageCost, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	cost, ok := r.s.costs[levelKey{storeID, productID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cost, nil
}

func (r *costRepo) Save(_ context.Context, cost *model.AverageCost) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if cost.ID == uuid.Nil {
		cost.ID = uuid.New()
	}
	r.s.costs[levelKey{cost.StoreID, cost.ProductID}] = *cost
	return nil
}

type alertRepo struct{ s *Store }

func (r *alertRepo) Create(_ context.Context, alert *model.VarianceAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if alert.ID == uuid.Nil {
		alert.ID = uuid.New()
	}
	r.s.alerts[alert.ID] = *alert
	return nil
}

func (r *alertRepo) FindByID(_ context.Context, id uuid.UUID) (*model.VarianceAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	alert, ok := r.s.alerts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &alert, nil
}

func (r *alertRepo) FindOpen(_ context.Context, alertType string, storeID uuid.UUID, productID *uuid.UUID) (*model.VarianceAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, alert := range r.s.alerts {
		if alert.Type != alertType || alert.StoreID != storeID || alert.IsResolved {
			continue
		}
		if productID == nil && alert.ProductID == nil {
			return &alert, nil
		}
		if productID != nil && alert.ProductID != nil && *alert.ProductID == *productID {
			return &alert, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *alertRepo) ListActive(_ context.Context, storeID uuid.UUID) ([]model.VarianceAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var alerts []model.VarianceAlert
	for _, alert := range r.s.alerts {
		if alert.StoreID == storeID && !alert.IsResolved {
			alerts = append(alerts, alert)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DetectedAt.After(alerts[j].DetectedAt)
	})
	return alerts, nil
}

func (r *alertRepo) ListSince(_ context.Context, storeID uuid.UUID, since time.Time) ([]model.VarianceAlert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var alerts []model.VarianceAlert
	for _, alert := range r.s.alerts {
		if alert.StoreID == storeID && !alert.DetectedAt.Before(since) {
			alerts = append(alerts, alert)
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].DetectedAt.After(alerts[j].DetectedAt)
	})
	return alerts, nil
}

func (r *alertRepo) Update(_ context.Context, alert *model.VarianceAlert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.alerts[alert.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.alerts[alert.ID] = *alert
	return nil
}

type productRepo struct{ s *Store }

func (r *productRepo) Create(_ context.Context, product *model.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	r.s.products[product.ID] = *product
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	product, ok := r.s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &product, nil
}

func (r *productRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, product := range r.s.products {
		if product.SKU == sku {
			return &product, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *productRepo) List(_ context.Context, page, limit int, _ string) ([]model.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := make([]model.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		products = append(products, p)
	}
	sort.SliceStable(products, func(i, j int) bool { return products[i].SKU < products[j].SKU })

	total := int64(len(products))
	offset := (page - 1) * limit
	if offset >= len(products) {
		return []model.Product{}, total, nil
	}
	end := offset + limit
	if end > len(products) {
		end = len(products)
	}
	return products[offset:end], total, nil
}

type storeRepo struct{ s *Store }

func (r *storeRepo) Create(_ context.Context, store *model.Store) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if store.ID == uuid.Nil {
		store.ID = uuid.New()
	}
	r.s.stores[store.ID] = *store
	return nil
}

func (r *storeRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	store, ok := r.s.stores[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &store, nil
}

func (r *storeRepo) List(_ context.Context) ([]model.Store, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stores := make([]model.Store, 0, len(r.s.stores))
	for _, st := range r.s.stores {
		stores = append(stores, st)
	}
	sort.SliceStable(stores, func(i, j int) bool { return stores[i].Code < stores[j].Code })
	return stores, nil
}
