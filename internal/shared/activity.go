package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Activity is an append-only audit entry stored in activities.
type Activity struct {
	Type        string
	Description string
	UserID      string
	ProductID   string
	OrderID     string
	Metadata    map[string]any
	At          time.Time
}

// ActivityRecorder persists activity entries.
type ActivityRecorder interface {
	Record(ctx context.Context, a Activity) error
}

// ActivityLogger writes records into activities.
type ActivityLogger struct {
	pool *pgxpool.Pool
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger(pool *pgxpool.Pool) *ActivityLogger {
	return &ActivityLogger{pool: pool}
}

// Record persists the entry.
func (l *ActivityLogger) Record(ctx context.Context, a Activity) error {
	if l == nil || l.pool == nil {
		return errors.New("activity logger not initialised")
	}
	if a.Type == "" {
		return errors.New("activity requires type")
	}
	var metaJSON []byte
	if a.Metadata != nil {
		raw, err := json.Marshal(a.Metadata)
		if err != nil {
			return err
		}
		metaJSON = raw
	}
	var at *time.Time
	if !a.At.IsZero() {
		at = &a.At
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO activities (type, description, user_id, product_id, order_id, metadata, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, COALESCE($7, NOW()))`,
		a.Type, a.Description, a.UserID, a.ProductID, a.OrderID, metaJSON, at)
	return err
}

// RecordActivity writes the entry and only logs a failure. Activity logging
// never fails the operation that triggered it.
func RecordActivity(ctx context.Context, rec ActivityRecorder, logger *slog.Logger, a Activity) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, a); err != nil && logger != nil {
		logger.Warn("record activity", slog.String("type", a.Type), slog.Any("error", err))
	}
}

// DataChange builds an `{entity}_{action}` activity carrying before/after values.
func DataChange(entity, action, entityID, userID string, oldValue, newValue any) Activity {
	meta := map[string]any{"entityId": entityID}
	if oldValue != nil {
		meta["oldValue"] = oldValue
	}
	if newValue != nil {
		meta["newValue"] = newValue
	}
	return Activity{
		Type:        fmt.Sprintf("%s_%s", entity, action),
		Description: fmt.Sprintf("%s %s: %s", entity, action, entityID),
		UserID:      userID,
		Metadata:    meta,
	}
}

// ActivityFunc adapts a function to ActivityRecorder.
type ActivityFunc func(ctx context.Context, a Activity) error

// Record implements ActivityRecorder.
func (f ActivityFunc) Record(ctx context.Context, a Activity) error {
	return f(ctx, a)
}
