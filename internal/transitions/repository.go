package transitions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/platform/db"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

const (
	testCustomerEmail   = "test@example.com"
	testShippingAddress = "〒150-0001 東京都渋谷区神宮前1-1-1 テストビル101"
	testOrderNotes      = "⚠️ テスト機能で作成されたモック注文です"
	testLocationID      = "clocation1"
	defaultMockTotal    = 100000
	testOrderPrefix     = "TEST-"
)

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool     *pgxpool.Pool
	products *products.Repository
}

// NewRepository constructs PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, products: products.NewRepository(pool)}
}

// GetProduct loads a product.
func (r *PGRepository) GetProduct(ctx context.Context, id string) (products.Product, error) {
	return r.products.Get(ctx, id)
}

// CompareAndSetStatus delegates to the product store.
func (r *PGRepository) CompareAndSetStatus(ctx context.Context, id string, from, to products.Status) error {
	return r.products.CompareAndSetStatus(ctx, id, from, to)
}

// SetStatus delegates to the product store.
func (r *PGRepository) SetStatus(ctx context.Context, id string, status products.Status) error {
	return r.products.SetStatus(ctx, id, status)
}

// SyncListings sets the status of every listing of the product.
func (r *PGRepository) SyncListings(ctx context.Context, productID, listingStatus string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE listings SET status = $2, updated_at = NOW() WHERE product_id = $1`, productID, listingStatus)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateMockOrder writes a synthetic order, item and shipment for the product
// and tags the product as test data.
func (r *PGRepository) CreateMockOrder(ctx context.Context, p products.Product, now time.Time) (MockOrder, error) {
	total := p.Price
	if total <= 0 {
		total = defaultMockTotal
	}
	orderNumber := shared.TimestampCode("TEST", "-", now, lastN(p.ID, 4))
	tracking := shared.TimestampCode("TEST", "-", now, lastN(p.ID, 6))
	var mock MockOrder

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		customerID, err := testCustomer(ctx, tx)
		if err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (order_number, customer_id, status, total_amount, shipping_address, notes, order_date)
			VALUES ($1, $2, 'confirmed', $3, $4, $5, $6)
			RETURNING id`,
			orderNumber, customerID, total, testShippingAddress, testOrderNotes, now).Scan(&mock.ID); err != nil {
			return fmt.Errorf("insert mock order: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price) VALUES ($1, $2, 1, $3)`,
			mock.ID, p.ID, total); err != nil {
			return fmt.Errorf("insert mock order item: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO shipments (order_id, product_id, carrier, method, priority, status, tracking_number,
				customer_name, address, value, deadline, notes)
			VALUES ($1, $2, 'test-carrier', 'standard', 'normal', 'pending', $3, 'テスト顧客', $4, $5, $6, $7)
			RETURNING id`,
			mock.ID, p.ID, tracking, testShippingAddress, total, now.Add(7*24*time.Hour), testOrderNotes).Scan(&mock.ShipmentID); err != nil {
			return fmt.Errorf("insert mock shipment: %w", err)
		}
		patch, err := json.Marshal(map[string]any{
			"isTestProduct":   true,
			"testCreatedAt":   now.UTC().Format(time.RFC3339),
			"testOrderNumber": orderNumber,
		})
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE products
			SET current_location_id = $2,
			    metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
			    updated_at = NOW()
			WHERE id = $1`, p.ID, testLocationID, patch)
		return err
	})
	if err != nil {
		return MockOrder{}, err
	}
	mock.OrderNumber = orderNumber
	mock.Total = total
	mock.Message = "テスト用のモック注文を作成しました"
	return mock, nil
}

func testCustomer(ctx context.Context, tx pgx.Tx) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, testCustomerEmail).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO users (email, full_name, role) VALUES ($1, 'テスト顧客', 'customer')
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING id`, testCustomerEmail).Scan(&id)
	return id, err
}

// DeleteTestOrders removes synthetic orders that contain the product. Items
// and shipments go with them through the foreign keys.
func (r *PGRepository) DeleteTestOrders(ctx context.Context, productID string) (int, error) {
	var deleted int
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM orders o
			WHERE o.order_number LIKE $2
			  AND EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = o.id AND oi.product_id = $1)`,
			productID, testOrderPrefix+"%")
		if err != nil {
			return err
		}
		deleted = int(tag.RowsAffected())
		_, err = tx.Exec(ctx, `
			UPDATE products
			SET metadata = COALESCE(metadata, '{}'::jsonb) - 'isTestProduct' - 'testCreatedAt' - 'testOrderNumber',
			    updated_at = NOW()
			WHERE id = $1`, productID)
		return err
	})
	return deleted, err
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
