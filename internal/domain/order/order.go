// Package order holds the order aggregate and its placement, cancellation
// and deletion logic.
package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state. Transitions are one-directional:
// PENDING moves to PAID or AWAITING_SHIPMENT when payment resolves, and to
// CANCELLED only through the explicit cancel path.
type Status string

const (
	StatusPending          Status = "PENDING"
	StatusPaid             Status = "PAID"
	StatusAwaitingShipment Status = "AWAITING_SHIPMENT"
	StatusCancelled        Status = "CANCELLED"
)

// Customer holds contact fields captured at checkout. Orders may be placed
// anonymously, so these are independent of the user account.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// Order is a placed order with computed totals. Total is always
// Subtotal + Tax.
type Order struct {
	ID        string
	UserID    string
	Customer  Customer
	Items     []Item
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Item is a single order line. UnitPrice is the model price snapshotted at
// placement time; items are immutable after creation.
type Item struct {
	ID             string
	OrderID        string
	ProductModelID string
	Quantity       int
	UnitPrice      decimal.Decimal
}

// Repository defines persistence operations for orders. CreateWithStock,
// Cancel and Delete each run inside a single database transaction so the
// order rows and the inventory adjustments commit or roll back together.
type Repository interface {
	// CreateWithStock inserts the order and its items and decrements the
	// inventory of every referenced product model, all-or-nothing. It fails
	// with InsufficientStockError when any model lacks stock.
	CreateWithStock(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context) ([]Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	// Cancel sets the order status to CANCELLED and, when restoreStock is
	// true, increments each referenced inventory by the item quantities.
	Cancel(ctx context.Context, id string, restoreStock bool) error
	// Delete always restores stock, then removes the order and its items.
	Delete(ctx context.Context, id string) error
}
