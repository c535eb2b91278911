package transitions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/observability"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryRepo struct {
	mu         sync.Mutex
	products   map[string]products.Product
	listings   map[string]string
	mockOrders int
	mockErr    error
}

func newMemoryRepo(items ...products.Product) *memoryRepo {
	repo := &memoryRepo{products: map[string]products.Product{}, listings: map[string]string{}}
	for _, p := range items {
		repo.products[p.ID] = p
		repo.listings[p.ID] = "active"
	}
	return repo
}

func (m *memoryRepo) GetProduct(_ context.Context, id string) (products.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return products.Product{}, products.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) CompareAndSetStatus(_ context.Context, id string, from, to products.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return products.ErrNotFound
	}
	if p.Status != from {
		return &products.StaleStatusError{ProductID: id, Expected: from, Current: p.Status}
	}
	p.Status = to
	m.products[id] = p
	return nil
}

func (m *memoryRepo) SetStatus(_ context.Context, id string, status products.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.products[id]
	p.Status = status
	m.products[id] = p
	return nil
}

func (m *memoryRepo) SyncListings(_ context.Context, productID, listingStatus string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[productID] = listingStatus
	return 1, nil
}

func (m *memoryRepo) CreateMockOrder(_ context.Context, p products.Product, now time.Time) (MockOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.mockErr != nil {
		return MockOrder{}, m.mockErr
	}
	m.mockOrders++
	return MockOrder{ID: "order-" + p.ID, OrderNumber: shared.TimestampCode("TEST", "-", now, "0001"), Total: p.Price}, nil
}

func (m *memoryRepo) DeleteTestOrders(_ context.Context, _ string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.mockOrders
	m.mockOrders = 0
	return n, nil
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
	return notifications.Result{Created: len(items)}
}

func camera(status products.Status) products.Product {
	return products.Product{ID: "p1", Name: "Canon AE-1", Status: status, Price: 45000, SellerID: "s1"}
}

func TestValidateAllowList(t *testing.T) {
	cases := []struct {
		from, to products.Status
		ok       bool
	}{
		{products.StatusListing, products.StatusSold, true},
		{products.StatusSold, products.StatusListing, true},
		{products.StatusStorage, products.StatusListing, false},
		{products.StatusListing, products.StatusShipping, false},
		{products.StatusSold, products.StatusSold, false},
		{"", products.StatusSold, false},
	}
	for _, tc := range cases {
		err := Validate(tc.from, tc.to)
		if tc.ok {
			require.NoError(t, err, "%s -> %s", tc.from, tc.to)
			continue
		}
		require.ErrorIs(t, err, ErrTransitionNotAllowed)
		require.ErrorIs(t, err, httpx.ErrValidation)
	}
}

func TestApplyListingToSold(t *testing.T) {
	repo := newMemoryRepo(camera(products.StatusListing))
	notifier := &stubNotifier{}
	svc := NewService(repo, notifier, nil, nil)

	resp, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "listing", ToStatus: "sold"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, products.StatusSold, resp.CurrentStatus)
	require.Equal(t, "出品中", resp.PreviousStatusLabel)
	require.Equal(t, "購入者決定", resp.CurrentStatusLabel)
	require.NotNil(t, resp.MockOrder)
	require.Equal(t, "sold", repo.listings["p1"])
	require.Equal(t, products.StatusSold, repo.products["p1"].Status)

	require.Len(t, notifier.calls, 1)
	call := notifier.calls[0]
	require.Equal(t, notifications.EventOrderReadyForLabel, call.event)
	require.Equal(t, resp.MockOrder.ID, call.order.ID)
	require.Len(t, call.items, 1)
	require.Equal(t, "s1", call.items[0].SellerID)
}

func TestApplyAcceptsLabels(t *testing.T) {
	repo := newMemoryRepo(camera(products.StatusSold))
	svc := NewService(repo, nil, nil, nil)

	resp, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "売約済み", ToStatus: "出品中"})
	require.NoError(t, err)
	require.Equal(t, products.StatusListing, resp.CurrentStatus)
	require.Nil(t, resp.MockOrder)
	require.Equal(t, "active", repo.listings["p1"])
}

func TestApplyStaleStatus(t *testing.T) {
	repo := newMemoryRepo(camera(products.StatusStorage))
	svc := NewService(repo, &stubNotifier{}, nil, nil)

	_, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "listing", ToStatus: "sold"})
	require.ErrorIs(t, err, products.ErrStaleStatus)
	require.ErrorIs(t, err, httpx.ErrConflict)

	var stale *products.StaleStatusError
	require.True(t, errors.As(err, &stale))
	require.Equal(t, products.StatusStorage, stale.Current)
	require.Equal(t, products.StatusStorage, repo.products["p1"].Status)
	require.Equal(t, 0, repo.mockOrders)
}

func TestApplyRejectsPairBeforeLookup(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.Apply(context.Background(), Request{ProductID: "missing", FromStatus: "storage", ToStatus: "sold"})
	require.ErrorIs(t, err, ErrTransitionNotAllowed)
}

func TestRejectedTransitionsKeepMetricLabelsBounded(t *testing.T) {
	metrics := observability.NewMetrics()
	svc := NewService(newMemoryRepo(camera(products.StatusListing)), nil, nil, nil)
	svc.SetMetrics(metrics)

	for i := 0; i < 50; i++ {
		_, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: fmt.Sprintf("junk-%d", i), ToStatus: "sold"})
		require.ErrorIs(t, err, ErrTransitionNotAllowed)
	}
	_, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "storage", ToStatus: "sold"})
	require.ErrorIs(t, err, ErrTransitionNotAllowed)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()

	series := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "worlddoor_status_transitions_total{") {
			series++
		}
	}
	require.Equal(t, 2, series)
	require.Contains(t, body, `worlddoor_status_transitions_total{from="invalid",result="rejected",to="sold"} 50`)
	require.Contains(t, body, `worlddoor_status_transitions_total{from="storage",result="rejected",to="sold"} 1`)
	require.NotContains(t, body, "junk-")
}

func TestApplyUnknownProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.Apply(context.Background(), Request{ProductID: "missing", FromStatus: "listing", ToStatus: "sold"})
	require.ErrorIs(t, err, products.ErrNotFound)
}

func TestApplyMissingFields(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	_, err := svc.Apply(context.Background(), Request{ProductID: "p1"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestApplyNotifiesWhenMockOrderFails(t *testing.T) {
	repo := newMemoryRepo(camera(products.StatusListing))
	repo.mockErr = errors.New("insert failed")
	notifier := &stubNotifier{}
	svc := NewService(repo, notifier, nil, nil)

	resp, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "listing", ToStatus: "sold"})
	require.NoError(t, err)
	require.Nil(t, resp.MockOrder)
	require.Len(t, notifier.calls, 1)
	require.Empty(t, notifier.calls[0].order.ID)
}

func TestResetDeletesMockOrders(t *testing.T) {
	repo := newMemoryRepo(camera(products.StatusListing))
	svc := NewService(repo, nil, nil, nil)
	_, err := svc.Apply(context.Background(), Request{ProductID: "p1", FromStatus: "listing", ToStatus: "sold"})
	require.NoError(t, err)

	resp, err := svc.Reset(context.Background(), "p1")
	require.NoError(t, err)
	require.Equal(t, 1, resp.DeletedTestOrders)
	require.Equal(t, products.StatusListing, repo.products["p1"].Status)
	require.Equal(t, "active", repo.listings["p1"])

	_, err = svc.Reset(context.Background(), "")
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func newTestRouter(repo *memoryRepo, principal *shared.Principal) http.Handler {
	h := NewHandler(nil, NewService(repo, &stubNotifier{}, nil, nil))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	h.MountRoutes(r)
	return r
}

func postTransition(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test/status-transition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRejectsSeller(t *testing.T) {
	router := newTestRouter(newMemoryRepo(camera(products.StatusListing)), &shared.Principal{UserID: "s1", Role: shared.RoleSeller})
	rec := postTransition(router, `{"productId":"p1","fromStatus":"listing","toStatus":"sold"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerStatusCodes(t *testing.T) {
	staff := &shared.Principal{UserID: "staff", Role: shared.RoleStaff}

	rec := postTransition(newTestRouter(newMemoryRepo(camera(products.StatusListing)), staff),
		`{"productId":"p1","fromStatus":"listing","toStatus":"sold"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postTransition(newTestRouter(newMemoryRepo(camera(products.StatusListing)), staff),
		`{"productId":"p1","fromStatus":"storage","toStatus":"sold"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, []any{"listing → sold", "sold → listing"}, problem["allowedTransitions"])

	rec = postTransition(newTestRouter(newMemoryRepo(camera(products.StatusStorage)), staff),
		`{"productId":"p1","fromStatus":"listing","toStatus":"sold"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Equal(t, "storage", problem["currentStatus"])

	rec = postTransition(newTestRouter(newMemoryRepo(), staff),
		`{"productId":"p9","fromStatus":"listing","toStatus":"sold"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
