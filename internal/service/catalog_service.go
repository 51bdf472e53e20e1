package service

import (
	"context"
	"errors"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// CreateStoreRequest represents the payload for registering a store
type CreateStoreRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
	City string `json:"city"`
}

// CreateProductRequest represents the payload for registering a product
type CreateProductRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}

// CatalogService manages the store and product reference data that every
// movement must point at
type CatalogService interface {
	CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error)
	GetStore(ctx context.Context, id uuid.UUID) (*model.Store, error)
	ListStores(ctx context.Context) ([]model.Store, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
}

type catalogService struct {
	stores   repository.StoreRepository
	products repository.ProductRepository
}

func NewCatalogService(stores repository.StoreRepository, products repository.ProductRepository) CatalogService {
	return &catalogService{stores: stores, products: products}
}

func (s *catalogService) CreateStore(ctx context.Context, req CreateStoreRequest) (*model.Store, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, newValidationError("code", "must not be blank")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, newValidationError("name", "must not be blank")
	}

	store := &model.Store{
		ID:   uuid.New(),
		Code: code,
		Name: strings.TrimSpace(req.Name),
		City: strings.TrimSpace(req.City),
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *catalogService) GetStore(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	store, err := s.stores.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}

func (s *catalogService) ListStores(ctx context.Context) ([]model.Store, error) {
	return s.stores.List(ctx)
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*model.Product, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, newValidationError("sku", "must not be blank")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, newValidationError("name", "must not be blank")
	}
	if existing, err := s.products.FindBySKU(ctx, sku); err == nil && existing != nil {
		return nil, newValidationError("sku", "already registered")
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	unit := strings.TrimSpace(req.Unit)
	if unit == "" {
		unit = "kg"
	}

	product := &model.Product{
		ID:       uuid.New(),
		SKU:      sku,
		Name:     strings.TrimSpace(req.Name),
		Unit:     unit,
		Category: strings.TrimSpace(req.Category),
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	return s.products.List(ctx, page, limit, search)
}
