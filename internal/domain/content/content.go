// Package content holds merchandising records: homepage banners and
// customer quotation requests.
package content

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for content lookups.
var (
	ErrBannerNotFound    = errors.New("banner not found")
	ErrQuotationNotFound = errors.New("quotation not found")
)

// Banner is a homepage promotional entry.
type Banner struct {
	ID        string
	Title     string
	ImageURL  string
	Active    bool
	CreatedAt time.Time
}

// Quotation is a customer request-for-quote.
type Quotation struct {
	ID            string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Details       string
	CreatedAt     time.Time
}

// BannerRepository defines persistence operations for banners.
type BannerRepository interface {
	List(ctx context.Context, activeOnly bool) ([]Banner, error)
	Create(ctx context.Context, b *Banner) error
	Update(ctx context.Context, b *Banner) error
	Delete(ctx context.Context, id string) error
}

// QuotationRepository defines persistence operations for quotations.
type QuotationRepository interface {
	List(ctx context.Context) ([]Quotation, error)
	Create(ctx context.Context, q *Quotation) error
	Delete(ctx context.Context, id string) error
}
