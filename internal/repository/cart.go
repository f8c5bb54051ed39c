package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/cart"
)

var (
	_ cart.Repository         = (*CartRepository)(nil)
	_ cart.WishlistRepository = (*WishlistRepository)(nil)
)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// List returns the cart items of one user.
func (r *CartRepository) List(ctx context.Context, userID string) ([]cart.Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, product_model_id, quantity, added_at
			FROM cart_items WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing cart of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Item, error) {
		var it cart.Item
		err := row.Scan(&it.UserID, &it.ProductModelID, &it.Quantity, &it.AddedAt)
		return it, err
	})
}

// Add upserts a cart line, overwriting the quantity of an existing pair.
func (r *CartRepository) Add(ctx context.Context, item *cart.Item) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, product_model_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, product_model_id)
			DO UPDATE SET quantity = EXCLUDED.quantity, added_at = now()`,
		item.UserID, item.ProductModelID, item.Quantity,
	); err != nil {
		return fmt.Errorf("adding cart item %q: %w", item.ProductModelID, err)
	}
	return nil
}

// Remove deletes a single cart line.
func (r *CartRepository) Remove(ctx context.Context, userID, productModelID string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_model_id = $2`,
		userID, productModelID,
	); err != nil {
		return fmt.Errorf("removing cart item %q: %w", productModelID, err)
	}
	return nil
}

// Clear empties a user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("clearing cart of %q: %w", userID, err)
	}
	return nil
}

// WishlistRepository implements cart.WishlistRepository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given
// pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// List returns the wishlist items of one user.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]cart.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, product_model_id, added_at
			FROM wishlist_items WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing wishlist of %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.WishlistItem, error) {
		var it cart.WishlistItem
		err := row.Scan(&it.UserID, &it.ProductModelID, &it.AddedAt)
		return it, err
	})
}

// Add marks a product model as wished; duplicates are ignored.
func (r *WishlistRepository) Add(ctx context.Context, item *cart.WishlistItem) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (user_id, product_model_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		item.UserID, item.ProductModelID,
	); err != nil {
		return fmt.Errorf("adding wishlist item %q: %w", item.ProductModelID, err)
	}
	return nil
}

// Remove deletes a single wishlist entry.
func (r *WishlistRepository) Remove(ctx context.Context, userID, productModelID string) error {
	if _, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_model_id = $2`,
		userID, productModelID,
	); err != nil {
		return fmt.Errorf("removing wishlist item %q: %w", productModelID, err)
	}
	return nil
}
