// Package payment holds the M-Pesa STK push transaction record, its
// reconciliation state machine and the background poller.
package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ResultSuccess is the provider result code for a completed payment.
const ResultSuccess = 0

// Sentinel errors for transaction reconciliation.
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrConflictingResult is returned when a resolved transaction receives a
	// second result with a different outcome. The first terminal write wins.
	ErrConflictingResult = errors.New("conflicting result for resolved transaction")
)

// Transaction is one STK push request and its eventual outcome. A row is
// created only after the provider accepts the push, and is resolved exactly
// once by either the callback or the query path.
type Transaction struct {
	ID                  string
	OrderID             string
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseDescription string
	CustomerMessage     string
	ResultCode          *int
	ResultDescription   string
	ReceiptNumber       *string
	Amount              decimal.Decimal
	PhoneNumber         string
	TransactionDate     string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Resolved reports whether the transaction reached a terminal state.
func (t *Transaction) Resolved() bool {
	return t.ResultCode != nil
}

// Succeeded reports whether the payment completed with a receipt.
func (t *Transaction) Succeeded() bool {
	return t.ResultCode != nil && *t.ResultCode == ResultSuccess && t.ReceiptNumber != nil
}

// ResolveParams carries a provider result into the shared updater.
type ResolveParams struct {
	CheckoutRequestID string
	ResultCode        int
	ResultDescription string
	// Success-only fields; zero values when ResultCode != 0.
	ReceiptNumber   string
	Amount          decimal.Decimal
	PhoneNumber     string
	TransactionDate string
}

// Repository defines persistence operations for transactions.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Transaction, error)
	// ListPending returns transactions the provider accepted but has not yet
	// resolved, oldest first.
	ListPending(ctx context.Context) ([]Transaction, error)
	// Resolve applies a terminal result to the matching transaction and, when
	// the result carries a receipt, moves the linked order to
	// AWAITING_SHIPMENT, all within one database transaction. Resolving an
	// already-resolved row is a no-op for an identical outcome and
	// ErrConflictingResult otherwise. A missing row is ErrTransactionNotFound;
	// it is never created here.
	Resolve(ctx context.Context, p ResolveParams) (*Transaction, error)
}
