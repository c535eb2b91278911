package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/platform/db"
	"github.com/worlddoor/fulfillment/internal/products"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const orderColumns = `o.id, o.order_number, o.customer_id, o.status, o.total_amount, o.shipping_address,
	o.payment_method, o.notes, o.order_date, o.shipped_at, o.delivered_at, o.created_at, o.updated_at,
	u.id, u.email, u.full_name`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o      Order
		status string
		c      Customer
	)
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &status, &o.TotalAmount, &o.ShippingAddress,
		&o.PaymentMethod, &o.Notes, &o.OrderDate, &o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
		&c.ID, &c.Email, &c.FullName); err != nil {
		return Order{}, err
	}
	o.Status = Status(status)
	o.Customer = &c
	return o, nil
}

// List returns orders newest first with their items and shipments.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM orders o JOIN users u ON u.id = o.customer_id%s
		ORDER BY o.created_at DESC LIMIT $%d`, orderColumns, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var list []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attach(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get loads one order with items and shipments.
func (r *Repository) Get(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders o JOIN users u ON u.id = o.customer_id WHERE o.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	list := []Order{o}
	if err := r.attach(ctx, list); err != nil {
		return Order{}, err
	}
	return list[0], nil
}

func (r *Repository) attach(ctx context.Context, list []Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	index := make(map[string]int, len(list))
	for i, o := range list {
		ids[i] = o.ID
		index[o.ID] = i
		list[i].Items = []Item{}
		list[i].Shipments = []Shipment{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT oi.order_id, oi.id, oi.product_id, oi.quantity, oi.price,
		       p.name, p.sku, p.status, p.price, COALESCE(p.seller_id, '')
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var (
			orderID string
			it      Item
			p       ProductSummary
			status  string
		)
		if err := rows.Scan(&orderID, &it.ID, &it.ProductID, &it.Quantity, &it.Price,
			&p.Name, &p.SKU, &status, &p.Price, &p.SellerID); err != nil {
			rows.Close()
			return err
		}
		p.ID = it.ProductID
		p.Status = products.Status(status)
		it.Product = &p
		list[index[orderID]].Items = append(list[index[orderID]].Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT order_id, id, status, carrier, COALESCE(tracking_number, '')
		FROM shipments WHERE order_id = ANY($1) ORDER BY created_at`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			s       Shipment
		)
		if err := rows.Scan(&orderID, &s.ID, &s.Status, &s.Carrier, &s.TrackingNumber); err != nil {
			return err
		}
		list[index[orderID]].Shipments = append(list[index[orderID]].Shipments, s)
	}
	return rows.Err()
}

// CustomerExists reports whether a user id exists.
func (r *Repository) CustomerExists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// AvailableProducts returns the requested products that can still be ordered.
func (r *Repository) AvailableProducts(ctx context.Context, ids []string) (map[string]ProductSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, sku, status, price, COALESCE(seller_id, '')
		FROM products WHERE id = ANY($1) AND status IN ('storage', 'listing')`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]ProductSummary, len(ids))
	for rows.Next() {
		var (
			p      ProductSummary
			status string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.SKU, &status, &p.Price, &p.SellerID); err != nil {
			return nil, err
		}
		p.Status = products.Status(status)
		out[p.ID] = p
	}
	return out, rows.Err()
}

// Create inserts the order with its items and marks the products ordered.
func (r *Repository) Create(ctx context.Context, o Order) (Order, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (order_number, customer_id, status, total_amount, shipping_address, payment_method, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, order_date, created_at, updated_at`,
			o.OrderNumber, o.CustomerID, string(o.Status), o.TotalAmount, o.ShippingAddress, o.PaymentMethod, o.Notes,
		).Scan(&o.ID, &o.OrderDate, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return err
		}
		for i, it := range o.Items {
			if err := tx.QueryRow(ctx,
				`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, $3, $4) RETURNING id`,
				o.ID, it.ProductID, it.Quantity, it.Price).Scan(&o.Items[i].ID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = ANY($1)`,
			o.ProductIDs(), string(products.StatusOrdered))
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

var updatableColumns = map[string]bool{
	"status": true, "shipping_address": true, "payment_method": true, "notes": true,
	"shipped_at": true, "delivered_at": true,
}

// Update writes the given columns and returns the reloaded order.
func (r *Repository) Update(ctx context.Context, id string, changes map[string]any) (Order, error) {
	keys := make([]string, 0, len(changes))
	for k := range changes {
		if !updatableColumns[k] {
			return Order{}, fmt.Errorf("orders: column %q is not updatable", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	for _, k := range keys {
		v := changes[k]
		if s, ok := v.(Status); ok {
			v = string(s)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", k, len(args)))
	}
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return Order{}, err
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// SetProductStatus writes one product status.
func (r *Repository) SetProductStatus(ctx context.Context, productID string, status products.Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`,
		productID, string(status), time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return products.ErrNotFound
	}
	return nil
}
