// Package report holds the read-only aggregation views behind the reporting
// and dashboard endpoints.
package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesPoint is one day of order activity. Cancelled orders are excluded.
type SalesPoint struct {
	Day     time.Time
	Orders  int
	Revenue decimal.Decimal
}

// DashboardSummary is the storefront-wide snapshot shown on the admin
// dashboard.
type DashboardSummary struct {
	Users               int
	Products            int
	Orders              int
	Revenue             decimal.Decimal
	PendingTransactions int
	LowStockModels      int
}

// Repository defines the aggregation queries.
type Repository interface {
	Sales(ctx context.Context, from, to time.Time) ([]SalesPoint, error)
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}
