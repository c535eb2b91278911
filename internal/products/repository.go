package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, name, sku, category, status, price, condition, description,
	seller_id, current_location_id, metadata, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var (
		p          Product
		status     string
		sellerID   *string
		locationID *string
		meta       []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Category, &status, &p.Price, &p.Condition, &p.Description,
		&sellerID, &locationID, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return Product{}, err
	}
	p.Status = Status(status)
	if sellerID != nil {
		p.SellerID = *sellerID
	}
	if locationID != nil {
		p.CurrentLocationID = *locationID
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return Product{}, fmt.Errorf("decode metadata of %s: %w", p.ID, err)
		}
	}
	return p, nil
}

func buildWhere(filter ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.SellerID != "" {
		add("seller_id = $%d", filter.SellerID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(sku) LIKE $%d)", n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns one page of products newest first and the total match count.
func (r *Repository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Product, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get loads a single product.
func (r *Repository) Get(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// GetMany loads the products with the given ids in name order. Unknown ids
// are skipped.
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// StoredSince lists seller-owned products that have sat in storage without a
// status change since cutoff, oldest first.
func (r *Repository) StoredSince(ctx context.Context, cutoff time.Time) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products
		WHERE status = 'storage' AND seller_id IS NOT NULL AND updated_at <= $1
		ORDER BY updated_at, name`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Images returns product_images rows grouped by product id in sort order.
func (r *Repository) Images(ctx context.Context, productIDs []string) (map[string][]Image, error) {
	result := make(map[string][]Image, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, url, COALESCE(thumbnail_url, ''), COALESCE(filename, ''),
		       COALESCE(alt_text, ''), category, sort_order
		FROM product_images
		WHERE product_id = ANY($1)
		ORDER BY product_id, sort_order`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			img       Image
			productID string
		)
		if err := rows.Scan(&img.ID, &productID, &img.URL, &img.ThumbnailURL, &img.Filename,
			&img.AltText, &img.Category, &img.SortOrder); err != nil {
			return nil, err
		}
		result[productID] = append(result[productID], img)
	}
	return result, rows.Err()
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, p Product) (Product, error) {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return Product{}, err
	}
	if p.Metadata == nil {
		meta = []byte(`{}`)
	}
	created, err := scanProduct(r.pool.QueryRow(ctx, `
		INSERT INTO products (name, sku, category, status, price, condition, description, seller_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
		RETURNING `+productColumns,
		p.Name, p.SKU, p.Category, string(p.Status), p.Price, p.Condition, p.Description, p.SellerID, meta))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrDuplicateSKU
		}
		return Product{}, err
	}
	return created, nil
}

// Update applies column changes and returns the stored row.
func (r *Repository) Update(ctx context.Context, id string, updates map[string]any) (Product, error) {
	if len(updates) == 0 {
		return r.Get(ctx, id)
	}
	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+2)
	for i, field := range fields {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, i+1))
		args = append(args, updates[field])
	}
	args = append(args, time.Now())
	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), len(args), productColumns)
	p, err := scanProduct(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// Delete removes a product.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveOrder reports whether an open order references the product.
func (r *Repository) HasActiveOrder(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM order_items oi
			JOIN orders o ON o.id = oi.order_id
			WHERE oi.product_id = $1 AND o.status IN ('pending', 'confirmed', 'processing', 'shipped')
		)`, id).Scan(&exists)
	return exists, err
}

// SetStatus writes status unconditionally.
func (r *Repository) SetStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CompareAndSetStatus writes to only while the stored status equals from.
func (r *Repository) CompareAndSetStatus(ctx context.Context, id string, from, to Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var current string
	err = r.pool.QueryRow(ctx, `SELECT status FROM products WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return &StaleStatusError{ProductID: id, Expected: from, Current: Status(current)}
}

// MergeMetadata shallow-merges patch into the product's metadata and sets the
// location when non-empty.
func (r *Repository) MergeMetadata(ctx context.Context, id, locationID string, patch map[string]any) error {
	raw, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE products
		SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
		    current_location_id = COALESCE(NULLIF($3, ''), current_location_id),
		    updated_at = NOW()
		WHERE id = $1`, id, raw, locationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
