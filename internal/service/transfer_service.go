package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DTOs
type TransferItem struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"` // shipped amount
}

type TransferRequest struct {
	TransferID    string         `json:"transfer_id" binding:"required"`
	SourceStoreID string         `json:"source_store_id" binding:"required"`
	DestStoreID   string         `json:"dest_store_id" binding:"required"`
	Items         []TransferItem `json:"items" binding:"required,min=1,dive"`
	RecordedBy    string         `json:"recorded_by"`
}

type TransferReceiptItem struct {
	ProductID        string  `json:"product_id" binding:"required"`
	ShippedQuantity  float64 `json:"shipped_quantity" binding:"required,gt=0"`
	ReceivedQuantity float64 `json:"received_quantity" binding:"min=0"`
}

type TransferReceiptRequest struct {
	TransferID  string                `json:"transfer_id" binding:"required"`
	DestStoreID string                `json:"dest_store_id" binding:"required"`
	Items       []TransferReceiptItem `json:"items" binding:"required,min=1,dive"`
	RecordedBy  string                `json:"recorded_by"`
}

// TransferService models an inter-store transfer as two independent,
// eventually-consistent sides linked only by a shared reference id.
// Shipping decrements the source immediately and parks the quantity in the
// destination's reserved counter until the destination confirms receipt.
type TransferService interface {
	Create(ctx context.Context, req TransferRequest) ([]model.StockMovement, error)
	Receive(ctx context.Context, req TransferReceiptRequest) ([]model.StockMovement, error)
}

type transferService struct {
	ledger LedgerService
	stock  *StockService
	stores repository.StoreRepository
	log    *zap.Logger
}

func NewTransferService(ledger LedgerService, stock *StockService, stores repository.StoreRepository, log *zap.Logger) TransferService {
	return &transferService{ledger: ledger, stock: stock, stores: stores, log: log}
}

func (s *transferService) Create(ctx context.Context, req TransferRequest) ([]model.StockMovement, error) {
	transferID, err := uuid.Parse(req.TransferID)
	if err != nil {
		return nil, newValidationError("transfer_id", "must be a valid uuid")
	}
	sourceID, err := uuid.Parse(req.SourceStoreID)
	if err != nil {
		return nil, newValidationError("source_store_id", "must be a valid uuid")
	}
	destID, err := uuid.Parse(req.DestStoreID)
	if err != nil {
		return nil, newValidationError("dest_store_id", "must be a valid uuid")
	}
	if sourceID == destID {
		return nil, newValidationError("dest_store_id", "source and destination stores must differ")
	}
	if _, err := s.stores.FindByID(ctx, destID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newValidationError("dest_store_id", "store does not exist")
		}
		return nil, fmt.Errorf("failed to look up destination store: %w", err)
	}

	movements := make([]model.StockMovement, 0, len(req.Items))
	for i, item := range req.Items {
		productID, parseErr := uuid.Parse(item.ProductID)
		if parseErr != nil {
			return movements, newValidationError("product_id", "must be a valid uuid")
		}

		out := &model.StockMovement{
			Type:          model.MovementTransferOut,
			StoreID:       sourceID,
			ProductID:     productID,
			Quantity:      -item.Quantity,
			ReferenceID:   &transferID,
			ReferenceType: "transfer",
			RecordedBy:    req.RecordedBy,
		}
		if _, err := s.ledger.Append(ctx, out); err != nil {
			return movements, fmt.Errorf("transfer item %d: %w", i+1, err)
		}
		movements = append(movements, *out)

		// Park the in-transit quantity as reserved at the destination
		// until receipt is confirmed.
		if _, err := s.stock.Reserve(ctx, destID, productID, item.Quantity); err != nil {
			return movements, fmt.Errorf("transfer item %d: failed to reserve at destination: %w", i+1, err)
		}
	}

	s.log.Info("transfer created",
		zap.String("transfer_id", transferID.String()),
		zap.String("source_store_id", sourceID.String()),
		zap.String("dest_store_id", destID.String()),
		zap.Int("items", len(req.Items)),
	)
	return movements, nil
}

// Receive confirms the destination side. The reservation is released by the
// shipped amount, stock is incremented by it, and any shipped/received gap
// becomes an explicit damage loss (short receipt) or adjustment (overage)
// rather than being silently dropped.
func (s *transferService) Receive(ctx context.Context, req TransferReceiptRequest) ([]model.StockMovement, error) {
	transferID, err := uuid.Parse(req.TransferID)
	if err != nil {
		return nil, newValidationError("transfer_id", "must be a valid uuid")
	}
	destID, err := uuid.Parse(req.DestStoreID)
	if err != nil {
		return nil, newValidationError("dest_store_id", "must be a valid uuid")
	}

	movements := make([]model.StockMovement, 0, len(req.Items))
	for i, item := range req.Items {
		productID, parseErr := uuid.Parse(item.ProductID)
		if parseErr != nil {
			return movements, newValidationError("product_id", "must be a valid uuid")
		}

		if _, err := s.stock.Reserve(ctx, destID, productID, -item.ShippedQuantity); err != nil {
			return movements, fmt.Errorf("receipt item %d: failed to release reservation: %w", i+1, err)
		}

		in := &model.StockMovement{
			Type:          model.MovementTransferIn,
			StoreID:       destID,
			ProductID:     productID,
			Quantity:      item.ShippedQuantity,
			Reason:        fmt.Sprintf("received %.3f of %.3f shipped", item.ReceivedQuantity, item.ShippedQuantity),
			ReferenceID:   &transferID,
			ReferenceType: "transfer",
			RecordedBy:    req.RecordedBy,
		}
		if _, err := s.ledger.Append(ctx, in); err != nil {
			return movements, fmt.Errorf("receipt item %d: %w", i+1, err)
		}
		movements = append(movements, *in)

		diff := item.ShippedQuantity - item.ReceivedQuantity
		switch {
		case diff > 0:
			loss := &model.StockMovement{
				Type:          model.MovementLoss,
				StoreID:       destID,
				ProductID:     productID,
				Quantity:      -diff,
				LossCategory:  model.LossDamage,
				Reason:        "in-transit loss",
				ReferenceID:   &transferID,
				ReferenceType: "transfer",
				RecordedBy:    req.RecordedBy,
			}
			if _, err := s.ledger.Append(ctx, loss); err != nil {
				return movements, fmt.Errorf("receipt item %d: failed to record in-transit loss: %w", i+1, err)
			}
			movements = append(movements, *loss)
		case diff < 0:
			adj := &model.StockMovement{
				Type:          model.MovementAdjustment,
				StoreID:       destID,
				ProductID:     productID,
				Quantity:      -diff,
				Reason:        "transfer overage",
				ReferenceID:   &transferID,
				ReferenceType: "transfer",
				RecordedBy:    req.RecordedBy,
			}
			if _, err := s.ledger.Append(ctx, adj); err != nil {
				return movements, fmt.Errorf("receipt item %d: failed to record overage: %w", i+1, err)
			}
			movements = append(movements, *adj)
		}
	}

	s.log.Info("transfer received",
		zap.String("transfer_id", transferID.String()),
		zap.String("dest_store_id", destID.String()),
		zap.Int("items", len(req.Items)),
	)
	return movements, nil
}
