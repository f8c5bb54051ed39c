package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/payment"
)

var _ payment.Repository = (*TransactionRepository)(nil)

// TransactionRepository implements payment.Repository backed by PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository returns a TransactionRepository that uses the
// given pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const (
	insertTransactionSQL = `INSERT INTO transactions
		(id, order_id, merchant_request_id, checkout_request_id, response_desc, customer_message, amount, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	selectTransactionSQL = `SELECT id, order_id, merchant_request_id, checkout_request_id,
			response_desc, customer_message, result_code, result_desc, receipt_number,
			amount, phone_number, transaction_date, created_at, updated_at
		FROM transactions`

	listPendingSQL = selectTransactionSQL + ` WHERE result_code IS NULL ORDER BY created_at`
)

// Create persists a freshly accepted push as a pending transaction.
func (r *TransactionRepository) Create(ctx context.Context, t *payment.Transaction) error {
	_, err := r.pool.Exec(ctx, insertTransactionSQL,
		t.ID, t.OrderID, t.MerchantRequestID, t.CheckoutRequestID,
		t.ResponseDescription, t.CustomerMessage, t.Amount, t.PhoneNumber,
	)
	if err != nil {
		return fmt.Errorf("creating transaction %q: %w", t.CheckoutRequestID, err)
	}
	return nil
}

// GetByCheckoutRequestID returns the transaction matching the provider's
// checkout request identifier.
func (r *TransactionRepository) GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*payment.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectTransactionSQL+` WHERE checkout_request_id = $1`, checkoutRequestID)
	if err != nil {
		return nil, fmt.Errorf("getting transaction %q: %w", checkoutRequestID, err)
	}
	t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("getting transaction %q: %w", checkoutRequestID, err)
	}
	return &t, nil
}

// ListPending returns provider-accepted transactions that have no result
// yet, oldest first.
func (r *TransactionRepository) ListPending(ctx context.Context) ([]payment.Transaction, error) {
	rows, err := r.pool.Query(ctx, listPendingSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pending transactions: %w", err)
	}
	return pgx.CollectRows(rows, scanTransaction)
}

// Resolve applies a terminal result to the transaction and, when a receipt
// is present, moves the linked order to AWAITING_SHIPMENT. The row is locked
// for the duration so concurrent callback and query deliveries serialize.
//
// Idempotence rules for an already-resolved row:
//   - identical outcome (same code, same or absent receipt): no-op;
//   - same success code where only the receipt is new: the receipt and
//     metadata are filled in (the query path resolves without a receipt);
//   - anything else: payment.ErrConflictingResult.
func (r *TransactionRepository) Resolve(ctx context.Context, p payment.ResolveParams) (*payment.Transaction, error) {
	var resolved payment.Transaction

	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			selectTransactionSQL+` WHERE checkout_request_id = $1 FOR UPDATE`, p.CheckoutRequestID)
		if err != nil {
			return fmt.Errorf("locking transaction %q: %w", p.CheckoutRequestID, err)
		}
		t, err := pgx.CollectExactlyOneRow(rows, scanTransaction)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payment.ErrTransactionNotFound
			}
			return fmt.Errorf("locking transaction %q: %w", p.CheckoutRequestID, err)
		}

		if t.Resolved() {
			switch {
			case *t.ResultCode != p.ResultCode:
				return payment.ErrConflictingResult
			case t.ReceiptNumber != nil && p.ReceiptNumber != "" && *t.ReceiptNumber != p.ReceiptNumber:
				return payment.ErrConflictingResult
			case t.ReceiptNumber != nil || p.ReceiptNumber == "":
				// Duplicate delivery of the same outcome.
				resolved = t
				return nil
			}
			// Same success code, receipt newly available: fall through and
			// complete the record.
		}

		var receipt *string
		if p.ReceiptNumber != "" {
			receipt = &p.ReceiptNumber
		}

		_, err = tx.Exec(ctx, `UPDATE transactions
			SET result_code = $2, result_desc = $3,
				receipt_number = COALESCE($4, receipt_number),
				amount = CASE WHEN $5::numeric > 0 THEN $5 ELSE amount END,
				phone_number = CASE WHEN $6 <> '' THEN $6 ELSE phone_number END,
				transaction_date = CASE WHEN $7 <> '' THEN $7 ELSE transaction_date END,
				updated_at = now()
			WHERE checkout_request_id = $1`,
			p.CheckoutRequestID, p.ResultCode, p.ResultDescription,
			receipt, p.Amount, p.PhoneNumber, p.TransactionDate,
		)
		if err != nil {
			return fmt.Errorf("resolving transaction %q: %w", p.CheckoutRequestID, err)
		}

		if p.ResultCode == payment.ResultSuccess && receipt != nil {
			_, err = tx.Exec(ctx,
				`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
				t.OrderID, string(order.StatusAwaitingShipment),
			)
			if err != nil {
				return fmt.Errorf("marking order %q paid: %w", t.OrderID, err)
			}
		}

		t.ResultCode = &p.ResultCode
		t.ResultDescription = p.ResultDescription
		if receipt != nil {
			t.ReceiptNumber = receipt
		}
		if p.PhoneNumber != "" {
			t.PhoneNumber = p.PhoneNumber
		}
		if p.TransactionDate != "" {
			t.TransactionDate = p.TransactionDate
		}
		if p.Amount.IsPositive() {
			t.Amount = p.Amount
		}
		resolved = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resolved, nil
}

func scanTransaction(row pgx.CollectableRow) (payment.Transaction, error) {
	var t payment.Transaction
	err := row.Scan(
		&t.ID, &t.OrderID, &t.MerchantRequestID, &t.CheckoutRequestID,
		&t.ResponseDescription, &t.CustomerMessage, &t.ResultCode, &t.ResultDescription,
		&t.ReceiptNumber, &t.Amount, &t.PhoneNumber, &t.TransactionDate,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}
