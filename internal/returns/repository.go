package returns

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/products"
)

// Repository persists returns in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const returnColumns = `r.id, COALESCE(r.order_id, ''), r.product_id, COALESCE(p.name, ''), r.reason, r.condition,
	r.customer_note, r.staff_note, r.refund_amount, r.status, COALESCE(r.processed_by, ''), r.processed_at, r.created_at`

func scanReturn(row pgx.Row) (Return, error) {
	var (
		ret    Return
		status string
	)
	err := row.Scan(&ret.ID, &ret.OrderID, &ret.ProductID, &ret.ProductName, &ret.Reason, &ret.Condition,
		&ret.CustomerNote, &ret.StaffNote, &ret.RefundAmount, &status, &ret.ProcessedBy, &ret.ProcessedAt, &ret.CreatedAt)
	ret.Status = Status(status)
	return ret, err
}

// Recent returns the newest returns first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Return, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+returnColumns+`
		FROM returns r LEFT JOIN products p ON p.id = r.product_id
		ORDER BY r.created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Return
	for rows.Next() {
		ret, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}

// Stats counts returns per status.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE status = 'pending')::int,
			COUNT(*) FILTER (WHERE status = 'approved')::int,
			COUNT(*) FILTER (WHERE status = 'rejected')::int,
			COUNT(*) FILTER (WHERE status = 'completed')::int
		FROM returns`).Scan(&s.Total, &s.Pending, &s.Approved, &s.Rejected, &s.Completed)
	return s, err
}

// ReasonCounts groups returns by reason, most frequent first.
func (r *Repository) ReasonCounts(ctx context.Context) ([]ReasonCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT reason, COUNT(*)::int FROM returns GROUP BY reason ORDER BY COUNT(*) DESC, reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// Product loads the returned product and its seller.
func (r *Repository) Product(ctx context.Context, id string) (ProductRef, error) {
	var p ProductRef
	err := r.pool.QueryRow(ctx, `SELECT id, name, COALESCE(seller_id, ''), price FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.SellerID, &p.Price)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductRef{}, ErrProductNotFound
	}
	return p, err
}

// Create inserts a pending return.
func (r *Repository) Create(ctx context.Context, ret Return) (Return, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO returns (order_id, product_id, reason, condition, customer_note, refund_amount, status)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		ret.OrderID, ret.ProductID, ret.Reason, ret.Condition, ret.CustomerNote, ret.RefundAmount, string(ret.Status)).
		Scan(&ret.ID, &ret.CreatedAt)
	return ret, err
}

// Update applies c and returns the stored row.
func (r *Repository) Update(ctx context.Context, id string, c Change) (Return, error) {
	var gotID string
	err := r.pool.QueryRow(ctx, `
		UPDATE returns SET
			status = $2,
			staff_note = COALESCE($3, staff_note),
			refund_amount = COALESCE($4, refund_amount),
			processed_by = $5,
			processed_at = COALESCE($6, processed_at),
			updated_at = $7
		WHERE id = $1
		RETURNING id`,
		id, string(c.Status), c.StaffNote, c.RefundAmount, c.ProcessedBy, c.ProcessedAt, time.Now()).Scan(&gotID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Return{}, ErrNotFound
	}
	if err != nil {
		return Return{}, err
	}
	return scanReturn(r.pool.QueryRow(ctx, `SELECT `+returnColumns+`
		FROM returns r LEFT JOIN products p ON p.id = r.product_id WHERE r.id = $1`, gotID))
}

// SetProductStatus moves the returned product to status.
func (r *Repository) SetProductStatus(ctx context.Context, productID string, status products.Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, productID, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
