package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/catalog"
)

var (
	_ catalog.Repository          = (*CatalogRepository)(nil)
	_ catalog.InventoryRepository = (*InventoryRepository)(nil)
	_ catalog.ReviewRepository    = (*ReviewRepository)(nil)
)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListCategories returns all categories ordered by name.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

// CreateCategory persists a new category.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO categories (id, name) VALUES ($1, $2)`, c.ID, c.Name,
	); err != nil {
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// UpdateCategory renames a category.
func (r *CatalogRepository) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	tag, err := r.pool.Exec(ctx, `UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("updating category %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// DeleteCategory removes a category and its subtree via cascading deletes.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting category %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// ListSubcategories returns the subcategories of one category.
func (r *CatalogRepository) ListSubcategories(ctx context.Context, categoryID string) ([]catalog.Subcategory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, category_id, name FROM subcategories WHERE category_id = $1 ORDER BY name`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("listing subcategories of %q: %w", categoryID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Subcategory, error) {
		var s catalog.Subcategory
		err := row.Scan(&s.ID, &s.CategoryID, &s.Name)
		return s, err
	})
}

// CreateSubcategory persists a new subcategory.
func (r *CatalogRepository) CreateSubcategory(ctx context.Context, s *catalog.Subcategory) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO subcategories (id, category_id, name) VALUES ($1, $2, $3)`,
		s.ID, s.CategoryID, s.Name,
	); err != nil {
		return fmt.Errorf("creating subcategory %q: %w", s.Name, err)
	}
	return nil
}

// DeleteSubcategory removes a subcategory.
func (r *CatalogRepository) DeleteSubcategory(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subcategories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting subcategory %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrSubcategoryNotFound
	}
	return nil
}

const selectProductSQL = `SELECT id, subcategory_id, name, description, image_url, created_at
	FROM products`

// ListProducts returns the whole catalog ordered by creation time.
func (r *CatalogRepository) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, selectProductSQL+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanCatalogProduct)
}

// GetProduct returns a single product by id.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, selectProductSQL+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanCatalogProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// CreateProduct persists a new product.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, subcategory_id, name, description, image_url)
			VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.SubcategoryID, p.Name, p.Description, p.ImageURL,
	); err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// UpdateProduct stores the mutable fields of a product.
func (r *CatalogRepository) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET name = $2, description = $3, image_url = $4 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product and its models.
func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

const selectModelSQL = `SELECT id, product_id, name, price, created_at FROM product_models`

// ListModels returns the models of one product.
func (r *CatalogRepository) ListModels(ctx context.Context, productID string) ([]catalog.Model, error) {
	rows, err := r.pool.Query(ctx, selectModelSQL+` WHERE product_id = $1 ORDER BY name`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing models of %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanModel)
}

// GetModel returns a single product model by id.
func (r *CatalogRepository) GetModel(ctx context.Context, id string) (*catalog.Model, error) {
	rows, err := r.pool.Query(ctx, selectModelSQL+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting model %q: %w", id, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanModel)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrModelNotFound
		}
		return nil, fmt.Errorf("getting model %q: %w", id, err)
	}
	return &m, nil
}

// GetModels returns models matching any of the given ids.
func (r *CatalogRepository) GetModels(ctx context.Context, ids []string) ([]catalog.Model, error) {
	rows, err := r.pool.Query(ctx, selectModelSQL+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("getting models by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanModel)
}

// CreateModel persists a new model together with an empty inventory row.
func (r *CatalogRepository) CreateModel(ctx context.Context, m *catalog.Model) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO product_models (id, product_id, name, price) VALUES ($1, $2, $3, $4)`,
			m.ID, m.ProductID, m.Name, m.Price,
		); err != nil {
			return fmt.Errorf("creating model %q: %w", m.Name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO inventories (product_model_id, quantity) VALUES ($1, 0)`, m.ID,
		); err != nil {
			return fmt.Errorf("creating inventory for model %q: %w", m.ID, err)
		}
		return nil
	})
}

// DeleteModel removes a model; its inventory row cascades.
func (r *CatalogRepository) DeleteModel(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM product_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting model %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrModelNotFound
	}
	return nil
}

func scanCatalogProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.SubcategoryID, &p.Name, &p.Description, &p.ImageURL, &p.CreatedAt)
	return p, err
}

func scanModel(row pgx.CollectableRow) (catalog.Model, error) {
	var m catalog.Model
	err := row.Scan(&m.ID, &m.ProductID, &m.Name, &m.Price, &m.CreatedAt)
	return m, err
}

// InventoryRepository implements catalog.InventoryRepository backed by
// PostgreSQL. Order placement bypasses this and locks rows in its own
// transaction.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository that uses the given
// pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Get returns the inventory row of one product model.
func (r *InventoryRepository) Get(ctx context.Context, productModelID string) (*catalog.Inventory, error) {
	var inv catalog.Inventory
	err := r.pool.QueryRow(ctx,
		`SELECT product_model_id, quantity, updated_at FROM inventories WHERE product_model_id = $1`,
		productModelID,
	).Scan(&inv.ProductModelID, &inv.Quantity, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrInventoryNotFound
		}
		return nil, fmt.Errorf("getting inventory %q: %w", productModelID, err)
	}
	return &inv, nil
}

// Set overwrites the on-hand quantity of one product model.
func (r *InventoryRepository) Set(ctx context.Context, productModelID string, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE inventories SET quantity = $2, updated_at = now() WHERE product_model_id = $1`,
		productModelID, quantity,
	)
	if err != nil {
		return fmt.Errorf("setting inventory %q: %w", productModelID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrInventoryNotFound
	}
	return nil
}

// ReviewRepository implements catalog.ReviewRepository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// ListByProduct returns the reviews of one product, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string) ([]catalog.Review, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, COALESCE(user_id, ''), rating, comment, created_at
			FROM reviews WHERE product_id = $1 ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews of %q: %w", productID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Review, error) {
		var rev catalog.Review
		err := row.Scan(&rev.ID, &rev.ProductID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt)
		return rev, err
	})
}

// Create persists a new review.
func (r *ReviewRepository) Create(ctx context.Context, rev *catalog.Review) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO reviews (id, product_id, user_id, rating, comment)
			VALUES ($1, $2, NULLIF($3, ''), $4, $5)`,
		rev.ID, rev.ProductID, rev.UserID, rev.Rating, rev.Comment,
	); err != nil {
		return fmt.Errorf("creating review for %q: %w", rev.ProductID, err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting review %q: %w", id, err)
	}
	return nil
}
