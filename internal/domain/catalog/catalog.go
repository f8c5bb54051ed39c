// Package catalog holds the product catalog entities: categories,
// subcategories, products, sellable product models and their inventory.
package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups.
var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrModelNotFound       = errors.New("product model not found")
	ErrInventoryNotFound   = errors.New("inventory not found")
)

// Category is a top-level catalog grouping.
type Category struct {
	ID   string
	Name string
}

// Subcategory belongs to exactly one Category.
type Subcategory struct {
	ID         string
	CategoryID string
	Name       string
}

// Product is a catalog entry. It is not sellable by itself; customers buy
// one of its models.
type Product struct {
	ID            string
	SubcategoryID string
	Name          string
	Description   string
	ImageURL      string
	CreatedAt     time.Time
}

// Model is a specific purchasable variant of a Product, one-to-one with an
// Inventory row.
type Model struct {
	ID        string
	ProductID string
	Name      string
	Price     decimal.Decimal
	CreatedAt time.Time
}

// Inventory holds the on-hand quantity for one product model. Quantity never
// goes negative; decrements happen only inside the order transaction.
type Inventory struct {
	ProductModelID string
	Quantity       int
	UpdatedAt      time.Time
}

// Review is a customer rating attached to a product.
type Review struct {
	ID        string
	ProductID string
	UserID    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Repository defines persistence operations for the catalog tree.
type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListSubcategories(ctx context.Context, categoryID string) ([]Subcategory, error)
	CreateSubcategory(ctx context.Context, s *Subcategory) error
	DeleteSubcategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id string) error

	ListModels(ctx context.Context, productID string) ([]Model, error)
	GetModel(ctx context.Context, id string) (*Model, error)
	GetModels(ctx context.Context, ids []string) ([]Model, error)
	CreateModel(ctx context.Context, m *Model) error
	DeleteModel(ctx context.Context, id string) error
}

// InventoryRepository defines inventory reads and admin adjustments. Order
// placement does not use these; it locks rows inside its own transaction.
type InventoryRepository interface {
	Get(ctx context.Context, productModelID string) (*Inventory, error)
	Set(ctx context.Context, productModelID string, quantity int) error
}

// ReviewRepository defines persistence operations for product reviews.
type ReviewRepository interface {
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
	Create(ctx context.Context, r *Review) error
	Delete(ctx context.Context, id string) error
}
