package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/duka-api/internal/domain/catalog"
)

// VATRate is the fixed value-added tax applied when a VAT order is requested.
var VATRate = decimal.NewFromFloat(0.16)

// Sentinel errors for order validation.
var (
	ErrEmptyItems = fmt.Errorf("items required")
	ErrNotFound   = fmt.Errorf("order not found")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductModelID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for model %s", e.ProductModelID)
}

// ModelNotFoundError indicates a requested product model does not exist.
type ModelNotFoundError struct {
	ProductModelID string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("product model %s not found", e.ProductModelID)
}

// InsufficientStockError indicates an item requested more units than the
// inventory holds. The whole order is rejected; no partial orders.
type InsufficientStockError struct {
	ProductModelID string
	Requested      int
	Available      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for model %s: requested %d, available %d",
		e.ProductModelID, e.Requested, e.Available)
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	UserID   string
	Customer Customer
	Items    []ItemRequest
	VAT      bool
}

// ItemRequest is one requested line: a product model and a quantity.
type ItemRequest struct {
	ProductModelID string
	Quantity       int
}

// Service encapsulates order business logic.
type Service struct {
	models catalog.Repository
	orders Repository
}

// NewService creates an order Service with the required dependencies.
func NewService(models catalog.Repository, orders Repository) *Service {
	return &Service{models: models, orders: orders}
}

// Create validates the request, prices every line from the catalog, computes
// subtotal/tax/total and persists the order together with the inventory
// decrements in one atomic repository call.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductModelID: item.ProductModelID}
		}
		ids[i] = item.ProductModelID
	}

	fetched, err := s.models.GetModels(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get product models: %w", err)
	}
	modelMap := make(map[string]catalog.Model, len(fetched))
	for _, m := range fetched {
		modelMap[m.ID] = m
	}

	orderID := uuid.New().String()
	items := make([]Item, len(req.Items))
	subtotal := decimal.Zero
	for i, item := range req.Items {
		m, ok := modelMap[item.ProductModelID]
		if !ok {
			return nil, &ModelNotFoundError{ProductModelID: item.ProductModelID}
		}
		items[i] = Item{
			ID:             uuid.New().String(),
			OrderID:        orderID,
			ProductModelID: item.ProductModelID,
			Quantity:       item.Quantity,
			UnitPrice:      m.Price,
		}
		subtotal = subtotal.Add(m.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	tax := decimal.Zero
	if req.VAT {
		tax = subtotal.Mul(VATRate).Round(2)
	}
	subtotal = subtotal.Round(2)

	o := &Order{
		ID:       orderID,
		UserID:   req.UserID,
		Customer: req.Customer,
		Items:    items,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Status:   StatusPending,
	}
	if err := s.orders.CreateWithStock(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return o, nil
}

// Get returns an order with its items.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Cancel marks the order cancelled, restoring stock when requested.
func (s *Service) Cancel(ctx context.Context, id string, restoreStock bool) error {
	return s.orders.Cancel(ctx, id, restoreStock)
}

// Delete removes the order and its items, restoring stock unless an earlier
// cancel already returned it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}
