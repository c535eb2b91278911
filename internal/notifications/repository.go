package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
)

// Repository persists notifications and reads user settings in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a notification.
func (r *Repository) Create(ctx context.Context, n Notification) (Notification, error) {
	var meta []byte
	if n.Metadata != nil {
		raw, err := json.Marshal(n.Metadata)
		if err != nil {
			return Notification{}, err
		}
		meta = raw
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, type, title, message, priority, read, notification_type, action, metadata)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8)
		RETURNING id, created_at`,
		n.UserID, n.Type, n.Title, n.Message, n.Priority, n.NotificationType, n.Action, meta,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return Notification{}, err
	}
	return n, nil
}

// List returns the user's notifications newest first.
func (r *Repository) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, type, title, message, priority, read, notification_type, action, metadata, created_at
		FROM notifications
		WHERE user_id = $1 AND ($2 = FALSE OR read = FALSE)
		ORDER BY created_at DESC
		LIMIT $3`, userID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Notification
	for rows.Next() {
		var (
			n    Notification
			meta []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Priority, &n.Read,
			&n.NotificationType, &n.Action, &meta, &n.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &n.Metadata)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// MarkRead flags a notification owned by userID as read.
func (r *Repository) MarkRead(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// Contact loads a user's email and merged notification settings.
func (r *Repository) Contact(ctx context.Context, userID string) (Contact, error) {
	var (
		c   Contact
		raw []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, full_name, notification_settings FROM users WHERE id = $1`, userID,
	).Scan(&c.UserID, &c.Email, &c.FullName, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, fmt.Errorf("user %s: %w", userID, httpx.ErrNotFound)
	}
	if err != nil {
		return Contact{}, err
	}
	c.Settings = MergeSettings(raw)
	return c, nil
}

// SaveSettings stores the user's settings.
func (r *Repository) SaveSettings(ctx context.Context, userID string, settings Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET notification_settings = $2 WHERE id = $1`, userID, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, httpx.ErrNotFound)
	}
	return nil
}
