package returns

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
	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryRepo struct {
	returns       []Return
	products      map[string]ProductRef
	productStatus map[string]products.Status
	createErr     error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: map[string]ProductRef{
			"p1": {ID: "p1", Name: "Canon AE-1", SellerID: "s1", Price: 45000},
			"p2": {ID: "p2", Name: "Seiko 5", Price: 18000},
		},
		productStatus: map[string]products.Status{},
	}
}

func (m *memoryRepo) Recent(_ context.Context, limit int) ([]Return, error) {
	out := make([]Return, 0, len(m.returns))
	for i := len(m.returns) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.returns[i])
	}
	return out, nil
}

func (m *memoryRepo) Stats(_ context.Context) (Stats, error) {
	var s Stats
	for _, r := range m.returns {
		s.Total++
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusApproved:
			s.Approved++
		case StatusRejected:
			s.Rejected++
		case StatusCompleted:
			s.Completed++
		}
	}
	return s, nil
}

func (m *memoryRepo) ReasonCounts(_ context.Context) ([]ReasonCount, error) {
	var out []ReasonCount
	index := map[string]int{}
	for _, r := range m.returns {
		i, ok := index[r.Reason]
		if !ok {
			i = len(out)
			index[r.Reason] = i
			out = append(out, ReasonCount{Reason: r.Reason})
		}
		out[i].Count++
	}
	return out, nil
}

func (m *memoryRepo) Product(_ context.Context, id string) (ProductRef, error) {
	p, ok := m.products[id]
	if !ok {
		return ProductRef{}, ErrProductNotFound
	}
	return p, nil
}

func (m *memoryRepo) Create(_ context.Context, ret Return) (Return, error) {
	if m.createErr != nil {
		return Return{}, m.createErr
	}
	ret.ID = fmt.Sprintf("r%d", len(m.returns)+1)
	ret.CreatedAt = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m.returns = append(m.returns, ret)
	return ret, nil
}

func (m *memoryRepo) Update(_ context.Context, id string, c Change) (Return, error) {
	for i, r := range m.returns {
		if r.ID != id {
			continue
		}
		r.Status = c.Status
		if c.StaffNote != nil {
			r.StaffNote = *c.StaffNote
		}
		if c.RefundAmount != nil {
			r.RefundAmount = *c.RefundAmount
		}
		r.ProcessedBy = c.ProcessedBy
		if c.ProcessedAt != nil {
			r.ProcessedAt = c.ProcessedAt
		}
		m.returns[i] = r
		return r, nil
	}
	return Return{}, ErrNotFound
}

func (m *memoryRepo) SetProductStatus(_ context.Context, productID string, status products.Status) error {
	m.productStatus[productID] = status
	return nil
}

type notifyCall struct {
	event notifications.Event
	order notifications.OrderRef
	items []notifications.Item
}

type stubNotifier struct {
	calls []notifyCall
}

func (s *stubNotifier) Notify(_ context.Context, event notifications.Event, order notifications.OrderRef, items []notifications.Item) notifications.Result {
	s.calls = append(s.calls, notifyCall{event: event, order: order, items: items})
	return notifications.Result{Created: 1}
}

type activityLog struct {
	entries []shared.Activity
}

func (l *activityLog) Record(_ context.Context, a shared.Activity) error {
	l.entries = append(l.entries, a)
	return nil
}

var clock = time.Date(2026, 3, 12, 15, 30, 0, 0, time.UTC)

func newService(repo *memoryRepo, notifier Notifier, activity shared.ActivityRecorder) *Service {
	svc := NewService(repo, notifier, activity, nil)
	svc.now = func() time.Time { return clock }
	return svc
}

func staffContext() context.Context {
	return shared.ContextWithPrincipal(context.Background(), &shared.Principal{UserID: "u-staff", Email: "staff@worlddoor.example", Role: shared.RoleStaff})
}

func TestCreateNotifiesSeller(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	activity := &activityLog{}
	svc := newService(repo, notifier, activity)

	ret, err := svc.Create(staffContext(), CreateInput{OrderID: "o1", ProductID: "p1", Reason: "動作不良", RefundAmount: 45000})
	require.NoError(t, err)
	require.Equal(t, StatusPending, ret.Status)
	require.Equal(t, "Canon AE-1", ret.ProductName)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	require.Equal(t, notifications.EventReturnRequest, call.event)
	require.Equal(t, ret.ID, call.order.ReturnID)
	require.Equal(t, "動作不良", call.order.Reason)
	require.Equal(t, "s1", call.items[0].SellerID)

	require.Len(t, activity.entries, 1)
	require.Equal(t, "return_created", activity.entries[0].Type)
	require.Equal(t, "u-staff", activity.entries[0].UserID)
}

func TestCreateWithoutSellerSkipsNotification(t *testing.T) {
	notifier := &stubNotifier{}
	svc := newService(newMemoryRepo(), notifier, nil)

	_, err := svc.Create(context.Background(), CreateInput{ProductID: "p2", Reason: "イメージ違い"})
	require.NoError(t, err)
	require.Empty(t, notifier.calls)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(newMemoryRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{ProductID: "p1"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{ProductID: "p1", Reason: "x", RefundAmount: -1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{ProductID: "missing", Reason: "x"})
	require.ErrorIs(t, err, ErrProductNotFound)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateStoreFailureSkipsNotification(t *testing.T) {
	repo := newMemoryRepo()
	repo.createErr = errors.New("insert failed")
	notifier := &stubNotifier{}
	svc := newService(repo, notifier, nil)

	_, err := svc.Create(context.Background(), CreateInput{ProductID: "p1", Reason: "動作不良"})
	require.Error(t, err)
	require.Empty(t, notifier.calls)
}

func TestUpdateApproveMarksProductReturned(t *testing.T) {
	repo := newMemoryRepo()
	activity := &activityLog{}
	svc := newService(repo, nil, activity)
	ret, err := svc.Create(context.Background(), CreateInput{ProductID: "p1", Reason: "動作不良"})
	require.NoError(t, err)

	note := "シャッター不良を確認"
	updated, err := svc.Update(staffContext(), UpdateInput{ReturnID: ret.ID, Status: StatusApproved, StaffNote: &note})
	require.NoError(t, err)
	require.Equal(t, StatusApproved, updated.Status)
	require.Equal(t, note, updated.StaffNote)
	require.Equal(t, "staff@worlddoor.example", updated.ProcessedBy)
	require.NotNil(t, updated.ProcessedAt)
	require.True(t, clock.Equal(*updated.ProcessedAt))
	require.Equal(t, products.StatusReturned, repo.productStatus["p1"])
	require.Equal(t, "return_updated", activity.entries[len(activity.entries)-1].Type)
}

func TestUpdateStampsOnlyFinalStates(t *testing.T) {
	repo := newMemoryRepo()
	svc := newService(repo, nil, nil)
	ret, err := svc.Create(context.Background(), CreateInput{ProductID: "p1", Reason: "動作不良"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), UpdateInput{ReturnID: ret.ID, Status: StatusPending})
	require.NoError(t, err)
	require.Nil(t, updated.ProcessedAt)
	require.Equal(t, "system", updated.ProcessedBy)

	updated, err = svc.Update(context.Background(), UpdateInput{ReturnID: ret.ID, Status: StatusRejected})
	require.NoError(t, err)
	require.NotNil(t, updated.ProcessedAt)
	require.Empty(t, repo.productStatus)

	_, err = svc.Update(context.Background(), UpdateInput{ReturnID: ret.ID, Status: "lost"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.Update(context.Background(), UpdateInput{ReturnID: "missing", Status: StatusCompleted})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOverviewStatsAndReasons(t *testing.T) {
	repo := newMemoryRepo()
	repo.returns = []Return{
		{ID: "a", ProductID: "p1", Reason: "動作不良", Status: StatusApproved},
		{ID: "b", ProductID: "p1", Reason: "動作不良", Status: StatusRejected},
		{ID: "c", ProductID: "p2", Reason: "イメージ違い", Status: StatusPending},
		{ID: "d", ProductID: "p2", Reason: "動作不良", Status: StatusCompleted},
	}
	svc := newService(repo, nil, nil)

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Returns, 4)
	require.Equal(t, "d", overview.Returns[0].ID)
	require.Equal(t, Stats{Total: 4, Pending: 1, Approved: 1, Rejected: 1, Completed: 1, RejectionRate: 25}, overview.Stats)
	require.Equal(t, []ReasonCount{
		{Reason: "動作不良", Count: 3, Percentage: 75},
		{Reason: "イメージ違い", Count: 1, Percentage: 25},
	}, overview.ReasonBreakdown)

	empty, err := newService(newMemoryRepo(), nil, nil).Overview(context.Background())
	require.NoError(t, err)
	require.NotNil(t, empty.Returns)
	require.Equal(t, 0, empty.Stats.RejectionRate)
}

func newTestRouter(svc *Service, principal *shared.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(nil, svc).MountRoutes(r)
	return r
}

func TestHandlerRoutes(t *testing.T) {
	svc := newService(newMemoryRepo(), &stubNotifier{}, nil)
	staff := newTestRouter(svc, &shared.Principal{UserID: "u-staff", Role: shared.RoleStaff})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"productId":"p1","reason":"動作不良","refundAmount":45000}`))
	req.Header.Set("Content-Type", "application/json")
	staff.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created Return
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, StatusPending, created.Status)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/returns", strings.NewReader(`{"returnId":"`+created.ID+`","status":"completed"}`))
	staff.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	staff.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/returns", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var overview Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	require.Equal(t, 1, overview.Stats.Completed)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/returns", strings.NewReader(`{"productId":"missing","reason":"x"}`))
	staff.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	seller := newTestRouter(svc, &shared.Principal{UserID: "s1", Role: shared.RoleSeller})
	rec = httptest.NewRecorder()
	seller.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/returns", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
