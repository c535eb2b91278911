package picking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/platform/db"
)

// Repository persists picking tasks in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, kind, order_ids, customer_name, priority, status, assignee, due_date, shipping_method,
	total_items, picked_items, route, started_at, completed_at, held_at, created_at`

func scanTask(row pgx.Row) (Task, error) {
	var (
		t      Task
		status string
	)
	err := row.Scan(&t.ID, &t.Kind, &t.OrderIDs, &t.CustomerName, &t.Priority, &status, &t.Assignee, &t.DueDate,
		&t.ShippingMethod, &t.TotalItems, &t.PickedItems, &t.Route, &t.StartedAt, &t.CompletedAt, &t.HeldAt, &t.CreatedAt)
	t.Status = Status(status)
	return t, err
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		t.Items = []Item{}
		tasks = append(tasks, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, r.attachItems(ctx, tasks)
}

func (r *Repository) attachItems(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]string, len(tasks))
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
		index[t.ID] = i
	}
	rows, err := r.pool.Query(ctx, `
		SELECT task_id, id, product_id, product_name, sku, location, quantity, picked_quantity, status
		FROM picking_items WHERE task_id = ANY($1) ORDER BY location, id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			taskID string
			it     Item
		)
		if err := rows.Scan(&taskID, &it.ID, &it.ProductID, &it.ProductName, &it.SKU, &it.Location,
			&it.Quantity, &it.PickedQuantity, &it.Status); err != nil {
			return err
		}
		tasks[index[taskID]].Items = append(tasks[index[taskID]].Items, it)
	}
	return rows.Err()
}

// List returns tasks ordered by due date.
func (r *Repository) List(ctx context.Context, status Status, assignee string) ([]Task, error) {
	var (
		conds []string
		args  []any
	)
	if status != "" {
		args = append(args, string(status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if assignee != "" {
		args = append(args, assignee)
		conds = append(conds, fmt.Sprintf("assignee = $%d", len(args)))
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM picking_tasks`+where+` ORDER BY due_date ASC NULLS LAST, created_at`, args...)
}

var statusStamp = map[Status]string{
	StatusInProgress: "started_at",
	StatusCompleted:  "completed_at",
	StatusOnHold:     "held_at",
}

// SetStatus moves a task and stamps the matching timestamp column.
func (r *Repository) SetStatus(ctx context.Context, taskID string, status Status, at time.Time) error {
	query, args := `UPDATE picking_tasks SET status = $2 WHERE id = $1`, []any{taskID, string(status)}
	if col, ok := statusStamp[status]; ok {
		query = fmt.Sprintf(`UPDATE picking_tasks SET status = $2, %s = $3 WHERE id = $1`, col)
		args = append(args, at)
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// PickItem records the picked quantity of an item and refreshes the task total.
func (r *Repository) PickItem(ctx context.Context, taskID, itemID string, quantity int) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE picking_items SET picked_quantity = $3, status = 'picked'
			WHERE id = $2 AND task_id = $1`, taskID, itemID, quantity)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrItemNotFound
		}
		_, err = tx.Exec(ctx, `
			UPDATE picking_tasks
			SET picked_items = (SELECT COALESCE(SUM(picked_quantity), 0) FROM picking_items WHERE task_id = $1)
			WHERE id = $1`, taskID)
		return err
	})
}

// OrderLines returns the items of the given orders with their storage
// locations, and the distinct customer names.
func (r *Repository) OrderLines(ctx context.Context, orderIDs []string) ([]Item, []string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT oi.product_id, p.name, p.sku, COALESCE(p.current_location_id, ''), oi.quantity, u.full_name
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN products p ON p.id = oi.product_id
		JOIN users u ON u.id = o.customer_id
		WHERE oi.order_id = ANY($1)
		ORDER BY o.created_at, oi.id`, orderIDs)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var (
		items     []Item
		customers []string
		seen      = map[string]bool{}
	)
	for rows.Next() {
		var (
			it       Item
			customer string
		)
		if err := rows.Scan(&it.ProductID, &it.ProductName, &it.SKU, &it.Location, &it.Quantity, &customer); err != nil {
			return nil, nil, err
		}
		it.Status = string(StatusPending)
		items = append(items, it)
		if customer != "" && !seen[customer] {
			seen[customer] = true
			customers = append(customers, customer)
		}
	}
	return items, customers, rows.Err()
}

// CreateTask inserts a task with its items.
func (r *Repository) CreateTask(ctx context.Context, t Task) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO picking_tasks (id, kind, order_ids, customer_name, priority, status, assignee, due_date,
				shipping_method, total_items, picked_items, route, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12)`,
			t.ID, t.Kind, t.OrderIDs, t.CustomerName, t.Priority, string(t.Status), t.Assignee, t.DueDate,
			t.ShippingMethod, t.TotalItems, t.Route, t.CreatedAt); err != nil {
			return err
		}
		for _, it := range t.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO picking_items (task_id, product_id, product_name, sku, location, quantity, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				t.ID, it.ProductID, it.ProductName, it.SKU, it.Location, it.Quantity, it.Status); err != nil {
				return err
			}
		}
		return nil
	})
}

// CompletedSince returns tasks completed at or after since.
func (r *Repository) CompletedSince(ctx context.Context, since time.Time) ([]Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM picking_tasks
		WHERE status = 'completed' AND completed_at >= $1 ORDER BY completed_at DESC`, since)
}
