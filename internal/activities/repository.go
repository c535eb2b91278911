package activities

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the activities table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entryColumns = `a.id, a.type, a.description, COALESCE(a.user_id, ''), COALESCE(NULLIF(u.full_name, ''), u.email, ''),
	COALESCE(a.product_id, ''), COALESCE(p.name, ''), COALESCE(a.order_id, ''), COALESCE(o.order_number, ''),
	a.metadata, a.created_at`

const entryJoins = ` FROM activities a
	LEFT JOIN users u ON u.id = a.user_id
	LEFT JOIN products p ON p.id = a.product_id
	LEFT JOIN orders o ON o.id = a.order_id`

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e    Entry
		meta []byte
	)
	if err := row.Scan(&e.ID, &e.Type, &e.Description, &e.UserID, &e.UserName, &e.ProductID, &e.ProductName,
		&e.OrderID, &e.OrderNumber, &meta, &e.CreatedAt); err != nil {
		return Entry{}, err
	}
	if len(meta) > 0 {
		// Entries with unreadable metadata are still listed.
		_ = json.Unmarshal(meta, &e.Metadata)
	}
	return e, nil
}

func buildWhere(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Type != "" {
		add("a.type = $%d", f.Type)
	}
	if f.UserID != "" {
		add("a.user_id = $%d", f.UserID)
	}
	if f.ProductID != "" {
		add("a.product_id = $%d", f.ProductID)
	}
	if f.OrderID != "" {
		add("a.order_id = $%d", f.OrderID)
	}
	if !f.From.IsZero() {
		add("a.created_at >= $%d", f.From)
	}
	if !f.To.IsZero() {
		add("a.created_at <= $%d", f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func collect(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// List returns one page of matching activities newest first and the total
// match count.
func (r *Repository) List(ctx context.Context, f Filter, limit, offset int) ([]Entry, int, error) {
	where, args := buildWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activities a`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := fmt.Sprintf(`SELECT %s%s%s ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d`,
		entryColumns, entryJoins, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows)
	return items, total, err
}

// CountByType counts activities per type in the window, most frequent first.
func (r *Repository) CountByType(ctx context.Context, from, to time.Time) ([]TypeCount, error) {
	where, args := buildWhere(Filter{From: from, To: to})
	rows, err := r.pool.Query(ctx, `SELECT a.type, COUNT(*)::int FROM activities a`+where+
		` GROUP BY a.type ORDER BY COUNT(*) DESC, a.type`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// CountByUser counts activities per user in the window, most active first.
func (r *Repository) CountByUser(ctx context.Context, from, to time.Time, limit int) ([]UserCount, error) {
	where, args := buildWhere(Filter{From: from, To: to})
	if where == "" {
		where = " WHERE a.user_id IS NOT NULL"
	} else {
		where += " AND a.user_id IS NOT NULL"
	}
	query := fmt.Sprintf(`SELECT a.user_id, COALESCE(NULLIF(MAX(u.full_name), ''), MAX(u.email), ''), COUNT(*)::int
		FROM activities a LEFT JOIN users u ON u.id = a.user_id%s
		GROUP BY a.user_id ORDER BY COUNT(*) DESC, a.user_id LIMIT $%d`, where, len(args)+1)
	rows, err := r.pool.Query(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UserCount
	for rows.Next() {
		var uc UserCount
		if err := rows.Scan(&uc.UserID, &uc.UserName, &uc.Count); err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}
