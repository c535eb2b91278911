package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// Record is the checklist stored on a product row.
type Record struct {
	ProductID string
	SellerID  string
	Category  string
	Checklist Data
}

// Repository persists checklists on products.inspection_checklist.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads the checklist of productID. A product without a saved checklist
// returns a nil Checklist.
func (r *Repository) Get(ctx context.Context, productID string) (Record, error) {
	var (
		rec      Record
		sellerID *string
		raw      []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, seller_id, category, inspection_checklist FROM products WHERE id = $1`,
		productID).Scan(&rec.ProductID, &sellerID, &rec.Category, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("product %s: %w", productID, httpx.ErrNotFound)
	}
	if err != nil {
		return Record{}, err
	}
	if sellerID != nil {
		rec.SellerID = *sellerID
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &rec.Checklist); err != nil {
			return Record{}, fmt.Errorf("decode checklist: %w", err)
		}
	}
	return rec, nil
}

// Save overwrites the checklist of productID.
func (r *Repository) Save(ctx context.Context, productID string, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET inspection_checklist = $2, updated_at = NOW() WHERE id = $1`,
		productID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", productID, httpx.ErrNotFound)
	}
	return nil
}
