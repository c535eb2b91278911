package shipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/products"
)

// Repository persists shipments in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shipmentColumns = `s.id, COALESCE(s.order_id, ''), COALESCE(s.product_id, ''), COALESCE(p.name, ''),
	s.carrier, s.method, s.priority, s.status, COALESCE(s.tracking_number, ''), s.customer_name, s.address,
	s.value, s.notes, s.deadline, s.picked_at, s.packed_at, s.shipped_at, s.delivered_at, s.created_at`

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		s      Shipment
		status string
	)
	err := row.Scan(&s.ID, &s.OrderID, &s.ProductID, &s.ProductName, &s.Carrier, &s.Method, &s.Priority, &status,
		&s.TrackingNumber, &s.CustomerName, &s.Address, &s.Value, &s.Notes, &s.Deadline, &s.PickedAt, &s.PackedAt,
		&s.ShippedAt, &s.DeliveredAt, &s.CreatedAt)
	s.Status = Status(status)
	return s, err
}

// Get loads one shipment.
func (r *Repository) Get(ctx context.Context, id string) (Shipment, error) {
	s, err := scanShipment(r.pool.QueryRow(ctx, `SELECT `+shipmentColumns+`
		FROM shipments s LEFT JOIN products p ON p.id = s.product_id WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Shipment{}, ErrNotFound
	}
	return s, err
}

// Create inserts a shipment.
func (r *Repository) Create(ctx context.Context, s Shipment) (Shipment, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO shipments (order_id, product_id, carrier, method, priority, status, tracking_number,
			customer_name, address, value, notes)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		s.OrderID, s.ProductID, s.Carrier, s.Method, s.Priority, string(s.Status), s.TrackingNumber,
		s.CustomerName, s.Address, s.Value, s.Notes).Scan(&s.ID, &s.CreatedAt)
	return s, err
}

// UpdateStatus writes the status and notes and stamps the status time.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, notes *string, at time.Time) (Shipment, error) {
	query := `UPDATE shipments SET status = $2, notes = COALESCE($3, notes) WHERE id = $1`
	args := []any{id, string(status), notes}
	if col, ok := stampColumns[status]; ok {
		query = fmt.Sprintf(`UPDATE shipments SET status = $2, notes = COALESCE($3, notes), %s = $4 WHERE id = $1`, col)
		args = append(args, at)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return Shipment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Shipment{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// Link loads the product and order of a shipment.
func (r *Repository) Link(ctx context.Context, shipmentID string) (Link, error) {
	var l Link
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(p.id, ''), COALESCE(p.name, ''), COALESCE(p.sku, ''), COALESCE(p.seller_id, ''),
		       COALESCE(p.price, 0), COALESCE(o.id, ''), COALESCE(o.order_number, '')
		FROM shipments s
		LEFT JOIN products p ON p.id = s.product_id
		LEFT JOIN orders o ON o.id = s.order_id
		WHERE s.id = $1`, shipmentID).Scan(&l.ProductID, &l.ProductName, &l.SKU, &l.SellerID, &l.Price, &l.OrderID, &l.OrderNumber)
	if errors.Is(err, pgx.ErrNoRows) {
		return Link{}, ErrNotFound
	}
	return l, err
}

// MarkListingsShipped flags every listing of the product as shipped.
func (r *Repository) MarkListingsShipped(ctx context.Context, productID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE listings SET shipping_status = 'shipped', shipped_at = $2, updated_at = NOW()
		WHERE product_id = $1`, productID, at)
	return err
}

// SetProductStatus writes one product status.
func (r *Repository) SetProductStatus(ctx context.Context, productID string, status products.Status) error {
	_, err := r.pool.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, productID, string(status))
	return err
}

// CreatedBetween returns tracked shipments created in [from, to), newest first.
func (r *Repository) CreatedBetween(ctx context.Context, from, to time.Time, limit int) ([]Shipment, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+shipmentColumns+`
		FROM shipments s LEFT JOIN products p ON p.id = s.product_id
		WHERE s.created_at >= $1 AND s.created_at < $2 AND TRIM(COALESCE(s.tracking_number, '')) <> ''
		ORDER BY s.created_at DESC LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Counts computes the board totals for shipments created in [from, to).
func (r *Repository) Counts(ctx context.Context, from, to time.Time) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2),
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2 AND status = 'delivered'),
			COUNT(*) FILTER (WHERE created_at >= $1 AND created_at < $2 AND status IN ('pending', 'picked', 'packed')
				AND TRIM(COALESCE(tracking_number, '')) <> ''),
			COUNT(*) FILTER (WHERE priority = 'urgent' AND status <> 'delivered')
		FROM shipments`, from, to).Scan(&c.Total, &c.Completed, &c.Pending, &c.Urgent)
	return c, err
}
