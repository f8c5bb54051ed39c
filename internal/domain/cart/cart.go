// Package cart holds per-user cart and wishlist items.
package cart

import (
	"context"
	"time"
)

// Item is a product model plus quantity sitting in a user's cart.
type Item struct {
	UserID         string
	ProductModelID string
	Quantity       int
	AddedAt        time.Time
}

// WishlistItem marks a product model a user wants to buy later.
type WishlistItem struct {
	UserID         string
	ProductModelID string
	AddedAt        time.Time
}

// Repository defines persistence operations for cart items. Add upserts the
// quantity for an existing (user, model) pair.
type Repository interface {
	List(ctx context.Context, userID string) ([]Item, error)
	Add(ctx context.Context, item *Item) error
	Remove(ctx context.Context, userID, productModelID string) error
	Clear(ctx context.Context, userID string) error
}

// WishlistRepository defines persistence operations for wishlist items.
type WishlistRepository interface {
	List(ctx context.Context, userID string) ([]WishlistItem, error)
	Add(ctx context.Context, item *WishlistItem) error
	Remove(ctx context.Context, userID, productModelID string) error
}
