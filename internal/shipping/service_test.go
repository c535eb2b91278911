package shipping

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/notifications"
	"github.com/worlddoor/fulfillment/internal/picking"
	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/products"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryRepo struct {
	shipments      map[string]Shipment
	links          map[string]Link
	listingShipped map[string]bool
	productStatus  map[string]products.Status
	listingErr     error
	counts         Counts
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		shipments: map[string]Shipment{
			"sh1": {ID: "sh1", Status: StatusPacked, TrackingNumber: "TRK1"},
			"sh2": {ID: "sh2", Status: StatusPacked, TrackingNumber: "TRK2"},
			"sh3": {ID: "sh3", Status: StatusPacked, TrackingNumber: "TRK3"},
		},
		links: map[string]Link{
			"sh1": {ProductID: "p1", ProductName: "Canon AE-1", SellerID: "s1", Price: 45000, OrderID: "o1", OrderNumber: "ORD-1"},
			"sh2": {},
			"sh3": {ProductID: "p3", ProductName: "Nikon F3", Price: 60000},
		},
		listingShipped: map[string]bool{},
		productStatus:  map[string]products.Status{},
	}
}

func (m *memoryRepo) Create(_ context.Context, s Shipment) (Shipment, error) {
	s.ID = "new"
	m.shipments[s.ID] = s
	return s, nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id string, status Status, notes *string, at time.Time) (Shipment, error) {
	s, ok := m.shipments[id]
	if !ok {
		return Shipment{}, ErrNotFound
	}
	s.Status = status
	if notes != nil {
		s.Notes = *notes
	}
	if status == StatusDelivered {
		s.DeliveredAt = &at
	}
	m.shipments[id] = s
	return s, nil
}

func (m *memoryRepo) Link(_ context.Context, id string) (Link, error) {
	return m.links[id], nil
}

func (m *memoryRepo) MarkListingsShipped(_ context.Context, productID string, _ time.Time) error {
	if m.listingErr != nil {
		return m.listingErr
	}
	m.listingShipped[productID] = true
	return nil
}

func (m *memoryRepo) SetProductStatus(_ context.Context, productID string, status products.Status) error {
	m.productStatus[productID] = status
	return nil
}

func (m *memoryRepo) CreatedBetween(_ context.Context, _, _ time.Time, _ int) ([]Shipment, error) {
	return []Shipment{m.shipments["sh1"]}, nil
}

func (m *memoryRepo) Counts(_ context.Context, _, _ time.Time) (Counts, error) {
	return m.counts, nil
}

type stubNotifier struct {
	events []notifications.Event
	items  []notifications.Item
}

func (s *stubNotifier) Notify(_ context.Context, event notifications.Event, _ notifications.OrderRef, items []notifications.Item) notifications.Result {
	s.events = append(s.events, event)
	s.items = append(s.items, items...)
	return notifications.Result{Created: 1}
}

type activityLog struct {
	entries []shared.Activity
}

func (l *activityLog) Record(_ context.Context, a shared.Activity) error {
	l.entries = append(l.entries, a)
	return nil
}

type stubTasks struct{}

func (stubTasks) List(_ context.Context, status picking.Status, _ string) ([]picking.Task, error) {
	return []picking.Task{{ID: "PICK-" + string(status), Status: status}}, nil
}

func TestCreateDefaults(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil, nil)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }

	sh, err := svc.Create(context.Background(), CreateInput{OrderID: "o1", CustomerName: "テスト顧客"})
	require.NoError(t, err)
	require.Equal(t, DefaultCarrier, sh.Carrier)
	require.Equal(t, DefaultMethod, sh.Method)
	require.Equal(t, DefaultPriority, sh.Priority)
	require.Equal(t, StatusPending, sh.Status)
	require.True(t, strings.HasPrefix(sh.TrackingNumber, "TRK1700000000000"))
	require.Len(t, sh.TrackingNumber, len("TRK1700000000000")+4)

	_, err = svc.Create(context.Background(), CreateInput{Priority: "yesterday"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestReadyForPickupHandsOver(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier, nil, nil)

	sh, err := svc.Update(context.Background(), UpdateInput{ShipmentID: "sh1", Status: StatusReadyForPickup})
	require.NoError(t, err)
	require.Equal(t, StatusReadyForPickup, sh.Status)
	require.True(t, repo.listingShipped["p1"])
	require.Equal(t, products.StatusShipping, repo.productStatus["p1"])
	require.Equal(t, []notifications.Event{notifications.EventShippingComplete}, notifier.events)
	require.Equal(t, "s1", notifier.items[0].SellerID)
}

func TestReadyForPickupWithoutSellerRecordsActivity(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	activity := &activityLog{}
	svc := NewService(repo, nil, notifier, activity, nil)

	_, err := svc.Update(context.Background(), UpdateInput{ShipmentID: "sh3", Status: StatusReadyForPickup})
	require.NoError(t, err)
	require.Equal(t, products.StatusShipping, repo.productStatus["p3"])
	require.Empty(t, notifier.events)
	require.Len(t, activity.entries, 1)
	require.Equal(t, "shipment_complete", activity.entries[0].Type)
	require.Equal(t, "p3", activity.entries[0].ProductID)
	require.Equal(t, "TRK3", activity.entries[0].Metadata["trackingNumber"])
}

func TestDeliveredMarksListingsOnly(t *testing.T) {
	repo := newMemoryRepo()
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier, nil, nil)

	sh, err := svc.Update(context.Background(), UpdateInput{ShipmentID: "sh1", Status: StatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, sh.DeliveredAt)
	require.True(t, repo.listingShipped["p1"])
	require.Empty(t, repo.productStatus)
	require.Empty(t, notifier.events)
}

func TestHandOverFailureKeepsUpdate(t *testing.T) {
	repo := newMemoryRepo()
	repo.listingErr = errors.New("deadlock detected")
	notifier := &stubNotifier{}
	svc := NewService(repo, nil, notifier, nil, nil)

	sh, err := svc.Update(context.Background(), UpdateInput{ShipmentID: "sh1", Status: StatusReadyForPickup})
	require.NoError(t, err)
	require.Equal(t, StatusReadyForPickup, sh.Status)
	require.Empty(t, notifier.events)

	_, err = svc.Update(context.Background(), UpdateInput{ShipmentID: "sh2", Status: StatusReadyForPickup})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), UpdateInput{ShipmentID: "missing", Status: StatusPicked})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(context.Background(), UpdateInput{ShipmentID: "sh1", Status: "lost"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTodayBoard(t *testing.T) {
	repo := newMemoryRepo()
	repo.counts = Counts{Total: 3, Completed: 2, Pending: 1, Urgent: 1}
	svc := NewService(repo, stubTasks{}, nil, nil, nil)

	board, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, board.TodayShipments, 1)
	require.Len(t, board.PickingTasks, 2)
	require.Equal(t, 67, board.Stats.Efficiency)
	require.Len(t, board.Carriers, 5)
}

func TestHandlerRoutes(t *testing.T) {
	svc := NewService(newMemoryRepo(), stubTasks{}, nil, nil, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := &shared.Principal{UserID: "u", Role: shared.RoleStaff}
			next.ServeHTTP(w, req.WithContext(shared.ContextWithPrincipal(req.Context(), p)))
		})
	})
	NewHandler(nil, svc).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shipping", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"todayTotal":0`)

	req := httptest.NewRequest(http.MethodPost, "/shipping", strings.NewReader(`{"orderId":"o1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "ヤマト運輸")
}
