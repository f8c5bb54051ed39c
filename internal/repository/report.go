package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/duka-api/internal/domain/order"
	"github.com/xenking/duka-api/internal/domain/report"
)

// lowStockThreshold marks models the dashboard flags for restocking.
const lowStockThreshold = 5

var _ report.Repository = (*ReportRepository)(nil)

// ReportRepository implements report.Repository backed by PostgreSQL.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository returns a ReportRepository that uses the given pool.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Sales returns per-day order counts and revenue over [from, to].
func (r *ReportRepository) Sales(ctx context.Context, from, to time.Time) ([]report.SalesPoint, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', created_at) AS day, COUNT(*), COALESCE(SUM(total), 0)
			FROM orders
			WHERE created_at >= $1 AND created_at < $2 AND status <> $3
			GROUP BY day ORDER BY day`,
		from, to, string(order.StatusCancelled),
	)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (report.SalesPoint, error) {
		var p report.SalesPoint
		err := row.Scan(&p.Day, &p.Orders, &p.Revenue)
		return p, err
	})
}

// Dashboard returns the storefront-wide summary counters.
func (r *ReportRepository) Dashboard(ctx context.Context) (*report.DashboardSummary, error) {
	var s report.DashboardSummary
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> $1),
			(SELECT COUNT(*) FROM transactions WHERE result_code IS NULL),
			(SELECT COUNT(*) FROM inventories WHERE quantity < $2)`,
		string(order.StatusCancelled), lowStockThreshold,
	).Scan(&s.Users, &s.Products, &s.Orders, &s.Revenue, &s.PendingTransactions, &s.LowStockModels)
	if err != nil {
		return nil, fmt.Errorf("dashboard summary: %w", err)
	}
	return &s, nil
}
