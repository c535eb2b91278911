package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/worlddoor/fulfillment/internal/jobs"
	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memorySender struct {
	sent []SendEmailPayload
	err  error
}

func (m *memorySender) Send(_ context.Context, msg SendEmailPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestNewSendEmailTask(t *testing.T) {
	task, err := NewSendEmailTask(SendEmailPayload{To: "seller@example.com", Subject: "件名", Text: "本文"})
	require.NoError(t, err)
	require.Equal(t, TaskTypeSendEmail, task.Type())

	var payload SendEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "seller@example.com", payload.To)

	_, err = NewSendEmailTask(SendEmailPayload{Subject: "no recipient"})
	require.Error(t, err)
}

func TestMailJobHandle(t *testing.T) {
	sender := &memorySender{}
	job := NewMailJob(sender, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSendEmailTask(SendEmailPayload{To: "seller@example.com", Subject: "売れました"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, sender.sent, 1)

	err = job.Handle(context.Background(), asynq.NewTask(TaskTypeSendEmail, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	sender.err = errors.New("connection refused")
	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	require.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestBuildMessage(t *testing.T) {
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	raw, err := BuildMessage("no-reply@theworlddoor.local", SendEmailPayload{
		To:      "seller@example.com",
		Subject: "🎉 商品が売れました",
		HTML:    "<p>html body</p>",
		Text:    "text body",
	}, at)
	require.NoError(t, err)

	msg := string(raw)
	require.Contains(t, msg, "From: no-reply@theworlddoor.local\r\n")
	require.Contains(t, msg, "To: seller@example.com\r\n")
	require.Contains(t, msg, "Subject: =?UTF-8?q?")
	require.Contains(t, msg, "Date: Tue, 10 Mar 2026 09:00:00 +0000\r\n")
	require.Contains(t, msg, "Content-Type: multipart/alternative; boundary=")
	require.Contains(t, msg, "text/plain; charset=UTF-8")
	require.Contains(t, msg, "text body")
	require.Contains(t, msg, "<p>html body</p>")
	require.Less(t, strings.Index(msg, "text body"), strings.Index(msg, "<p>html body</p>"))
}

type memoryStored struct {
	items  []products.Product
	cutoff time.Time
	err    error
}

func (m *memoryStored) StoredSince(_ context.Context, cutoff time.Time) ([]products.Product, error) {
	m.cutoff = cutoff
	return m.items, m.err
}

type recordingNotifier struct {
	event notifications.Event
	items []notifications.Item
}

func (r *recordingNotifier) Notify(_ context.Context, event notifications.Event, _ notifications.OrderRef, items []notifications.Item) notifications.Result {
	r.event = event
	r.items = items
	return notifications.Result{Created: len(notifications.GroupBySeller(items))}
}

func TestLongStorageScan(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	stored := &memoryStored{items: []products.Product{
		{ID: "p1", Name: "Nikon F3", SellerID: "s1", Price: 50000},
		{ID: "p2", Name: "Leica M6", SellerID: "s2", Price: 300000},
		{ID: "p3", Name: "Omega Seamaster", SellerID: "s1", Price: 200000},
	}}
	notifier := &recordingNotifier{}
	var recorded []shared.Activity
	activity := shared.ActivityFunc(func(_ context.Context, a shared.Activity) error {
		recorded = append(recorded, a)
		return nil
	})
	job := NewLongStorageJob(stored, notifier, activity, nil, nil, 90)
	job.clock = func() time.Time { return now }

	result, err := job.Scan(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, LongStorageResult{Days: 90, Products: 3, Notified: 2}, result)
	require.Equal(t, now.AddDate(0, 0, -90), stored.cutoff)
	require.Equal(t, notifications.EventInventoryAlert, notifier.event)
	require.Len(t, notifier.items, 3)

	require.Len(t, recorded, 1)
	require.Equal(t, "inventory_check", recorded[0].Type)
	require.Equal(t, "system", recorded[0].UserID)
}

func TestLongStorageHandleUsesPayloadDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	stored := &memoryStored{}
	notifier := &recordingNotifier{}
	job := NewLongStorageJob(stored, notifier, nil, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()), 90)
	job.clock = func() time.Time { return now }

	task, err := NewLongStorageScanTask(30)
	require.NoError(t, err)
	require.Equal(t, TaskLongStorageScan, task.Type())
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, now.AddDate(0, 0, -30), stored.cutoff)
	require.Empty(t, notifier.event)

	stored.err = errors.New("db down")
	require.Error(t, job.Handle(context.Background(), task))
	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskLongStorageScan, []byte("x"))), asynq.SkipRetry)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthHandler(t *testing.T) {
	serve := func(inspector QueueInspector) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		NewHandler(inspector, nil).MountRoutes(r)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rec
	}

	rec := serve(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4, Active: 1, Retry: 2}})
	require.Equal(t, http.StatusOK, rec.Code)
	var health QueueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, QueueHealth{Queue: QueueDefault, Pending: 4, Active: 1, Retry: 2}, health)

	rec = serve(stubInspector{err: fmt.Errorf("asynq: %w", asynq.ErrQueueNotFound)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(stubInspector{err: errors.New("redis down")})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
