package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository aggregates report figures from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SalesLines sums order items per product for orders placed in [from, to).
// Pending, cancelled and returned orders do not count as sales.
func (r *Repository) SalesLines(ctx context.Context, from, to time.Time) ([]SaleLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.sku, p.category, SUM(oi.quantity)::int, SUM(oi.price * oi.quantity)::bigint
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		WHERE o.order_date >= $1 AND o.order_date < $2
			AND o.status IN ('confirmed', 'processing', 'shipped', 'delivered')
		GROUP BY p.id, p.name, p.sku, p.category
		ORDER BY p.name`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SaleLine
	for rows.Next() {
		var l SaleLine
		if err := rows.Scan(&l.ProductID, &l.Name, &l.SKU, &l.Category, &l.Quantity, &l.Revenue); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Inventory summarises stock held in storage or listed at asOf.
func (r *Repository) Inventory(ctx context.Context, asOf time.Time, slowDays int) (InventorySnapshot, error) {
	var (
		s       InventorySnapshot
		avgDays float64
	)
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COALESCE(SUM(price), 0)::bigint,
			COALESCE(AVG(EXTRACT(EPOCH FROM ($1 - created_at)) / 86400), 0)::float8,
			COUNT(*) FILTER (WHERE created_at <= $1 - make_interval(days => $2))::int
		FROM products
		WHERE status IN ('storage', 'listing') AND created_at <= $1`, asOf, slowDays).
		Scan(&s.Count, &s.TotalValue, &avgDays, &s.SlowMoving)
	s.AverageDays = int(avgDays + 0.5)
	return s, err
}

// Operations counts new listings, deliveries and non-rejected return
// requests in [from, to).
func (r *Repository) Operations(ctx context.Context, from, to time.Time) (OperationCounts, error) {
	var c OperationCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM listings WHERE created_at >= $1 AND created_at < $2)::int,
			(SELECT COUNT(*) FROM orders WHERE delivered_at >= $1 AND delivered_at < $2)::int,
			(SELECT COUNT(*) FROM returns WHERE status <> 'rejected' AND created_at >= $1 AND created_at < $2)::int`,
		from, to).Scan(&c.NewListings, &c.CompletedSales, &c.Returns)
	return c, err
}
