package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/content"
)

var (
	_ content.BannerRepository    = (*BannerRepository)(nil)
	_ content.QuotationRepository = (*QuotationRepository)(nil)
)

// BannerRepository implements content.BannerRepository backed by PostgreSQL.
type BannerRepository struct {
	pool *pgxpool.Pool
}

// NewBannerRepository returns a BannerRepository that uses the given pool.
func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

// List returns banners, optionally only active ones, newest first.
func (r *BannerRepository) List(ctx context.Context, activeOnly bool) ([]content.Banner, error) {
	sql := `SELECT id, title, image_url, active, created_at FROM banners`
	if activeOnly {
		sql += ` WHERE active`
	}
	rows, err := r.pool.Query(ctx, sql+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing banners: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Banner, error) {
		var b content.Banner
		err := row.Scan(&b.ID, &b.Title, &b.ImageURL, &b.Active, &b.CreatedAt)
		return b, err
	})
}

// Create persists a new banner.
func (r *BannerRepository) Create(ctx context.Context, b *content.Banner) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO banners (id, title, image_url, active) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Title, b.ImageURL, b.Active,
	); err != nil {
		return fmt.Errorf("creating banner %q: %w", b.Title, err)
	}
	return nil
}

// Update stores the mutable fields of a banner.
func (r *BannerRepository) Update(ctx context.Context, b *content.Banner) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE banners SET title = $2, image_url = $3, active = $4 WHERE id = $1`,
		b.ID, b.Title, b.ImageURL, b.Active,
	)
	if err != nil {
		return fmt.Errorf("updating banner %q: %w", b.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrBannerNotFound
	}
	return nil
}

// Delete removes a banner.
func (r *BannerRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting banner %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrBannerNotFound
	}
	return nil
}

// QuotationRepository implements content.QuotationRepository backed by
// PostgreSQL.
type QuotationRepository struct {
	pool *pgxpool.Pool
}

// NewQuotationRepository returns a QuotationRepository that uses the given
// pool.
func NewQuotationRepository(pool *pgxpool.Pool) *QuotationRepository {
	return &QuotationRepository{pool: pool}
}

// List returns all quotation requests, newest first.
func (r *QuotationRepository) List(ctx context.Context) ([]content.Quotation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, customer_name, customer_email, customer_phone, details, created_at
			FROM quotations ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing quotations: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (content.Quotation, error) {
		var q content.Quotation
		err := row.Scan(&q.ID, &q.CustomerName, &q.CustomerEmail, &q.CustomerPhone, &q.Details, &q.CreatedAt)
		return q, err
	})
}

// Create persists a new quotation request.
func (r *QuotationRepository) Create(ctx context.Context, q *content.Quotation) error {
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO quotations (id, customer_name, customer_email, customer_phone, details)
			VALUES ($1, $2, $3, $4, $5)`,
		q.ID, q.CustomerName, q.CustomerEmail, q.CustomerPhone, q.Details,
	); err != nil {
		return fmt.Errorf("creating quotation for %q: %w", q.CustomerEmail, err)
	}
	return nil
}

// Delete removes a quotation request.
func (r *QuotationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting quotation %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return content.ErrQuotationNotFound
	}
	return nil
}
