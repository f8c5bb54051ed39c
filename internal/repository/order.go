package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Every
// mutation that touches inventory runs inside a single transaction with
// FOR UPDATE row locks, so concurrent orders against the same model are
// serialized by the database and quantity can never go negative.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const (
	insertOrderSQL = `INSERT INTO orders
		(id, user_id, customer_name, customer_email, customer_phone, subtotal, tax, total, status)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)`

	insertOrderItemSQL = `INSERT INTO order_items (id, order_id, product_model_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	lockInventorySQL = `SELECT quantity FROM inventories WHERE product_model_id = $1 FOR UPDATE`

	decrementInventorySQL = `UPDATE inventories
		SET quantity = quantity - $2, updated_at = now()
		WHERE product_model_id = $1`

	restoreInventorySQL = `UPDATE inventories
		SET quantity = quantity + $2, updated_at = now()
		WHERE product_model_id = $1`
)

// CreateWithStock checks and decrements inventory and inserts the order with
// its items, all-or-nothing.
func (r *OrderRepository) CreateWithStock(ctx context.Context, o *order.Order) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, item := range o.Items {
			var available int
			err := tx.QueryRow(ctx, lockInventorySQL, item.ProductModelID).Scan(&available)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return &order.ModelNotFoundError{ProductModelID: item.ProductModelID}
				}
				return fmt.Errorf("locking inventory for %q: %w", item.ProductModelID, err)
			}
			if available < item.Quantity {
				return &order.InsufficientStockError{
					ProductModelID: item.ProductModelID,
					Requested:      item.Quantity,
					Available:      available,
				}
			}
			if _, err := tx.Exec(ctx, decrementInventorySQL, item.ProductModelID, item.Quantity); err != nil {
				return fmt.Errorf("decrementing inventory for %q: %w", item.ProductModelID, err)
			}
		}

		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.UserID, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
			o.Subtotal, o.Tax, o.Total, string(o.Status),
		)
		if err != nil {
			return fmt.Errorf("inserting order %q: %w", o.ID, err)
		}

		for _, item := range o.Items {
			_, err := tx.Exec(ctx, insertOrderItemSQL,
				item.ID, o.ID, item.ProductModelID, item.Quantity, item.UnitPrice,
			)
			if err != nil {
				return fmt.Errorf("inserting order item for %q: %w", item.ProductModelID, err)
			}
		}
		return nil
	})
}

const (
	getOrderSQL = `SELECT id, COALESCE(user_id, ''), customer_name, customer_email, customer_phone,
			subtotal, tax, total, status, created_at, updated_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, COALESCE(user_id, ''), customer_name, customer_email, customer_phone,
			subtotal, tax, total, status, created_at, updated_at
		FROM orders ORDER BY created_at DESC`

	listOrdersByUserSQL = `SELECT id, COALESCE(user_id, ''), customer_name, customer_email, customer_phone,
			subtotal, tax, total, status, created_at, updated_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT id, order_id, product_model_id, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id`
)

// GetByID returns a single order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing items of order %q: %w", id, err)
	}
	return &o, nil
}

// List returns all orders, newest first, without items.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListByUser returns the orders owned by one user, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Cancel marks the order cancelled, optionally restoring stock for its
// items, in one transaction. The status update is conditional on the order
// not being cancelled yet, so concurrent or repeated cancels restore stock
// at most once; a cancel of an already cancelled order is a no-op.
func (r *OrderRepository) Cancel(ctx context.Context, id string, restoreStock bool) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE orders
				SET status = $2, stock_restored = stock_restored OR $3, updated_at = now()
				WHERE id = $1 AND status <> $2`,
			id, string(order.StatusCancelled), restoreStock,
		)
		if err != nil {
			return fmt.Errorf("cancelling order %q: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			// Either the order does not exist or it is already cancelled.
			var exists bool
			err := tx.QueryRow(ctx, `SELECT true FROM orders WHERE id = $1`, id).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("checking order %q: %w", id, err)
			}
			return nil
		}
		if !restoreStock {
			return nil
		}
		return restoreOrderStock(ctx, tx, id)
	})
}

// Delete removes the order and its items (ON DELETE CASCADE), restoring
// stock unless an earlier cancel already returned it.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		var restored bool
		err := tx.QueryRow(ctx,
			`SELECT stock_restored FROM orders WHERE id = $1 FOR UPDATE`, id,
		).Scan(&restored)
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("locking order %q: %w", id, err)
		}
		if !restored {
			if err := restoreOrderStock(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
			return fmt.Errorf("deleting order %q: %w", id, err)
		}
		return nil
	})
}

// restoreOrderStock increments inventory by each item quantity of the order.
func restoreOrderStock(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx,
		`SELECT product_model_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("listing items of order %q: %w", orderID, err)
	}

	type line struct {
		modelID  string
		quantity int
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (line, error) {
		var l line
		err := row.Scan(&l.modelID, &l.quantity)
		return l, err
	})
	if err != nil {
		return fmt.Errorf("scanning items of order %q: %w", orderID, err)
	}

	for _, l := range lines {
		if _, err := tx.Exec(ctx, restoreInventorySQL, l.modelID, l.quantity); err != nil {
			return fmt.Errorf("restoring inventory for %q: %w", l.modelID, err)
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Subtotal, &o.Tax, &o.Total, &status, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	err := row.Scan(&it.ID, &it.OrderID, &it.ProductModelID, &it.Quantity, &it.UnitPrice)
	return it, err
}
