package activities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

type memoryStore struct {
	entries    []Entry
	lastFilter Filter
	lastLimit  int
	lastOffset int
}

func (m *memoryStore) matches(f Filter, e Entry) bool {
	switch {
	case f.Type != "" && e.Type != f.Type,
		f.UserID != "" && e.UserID != f.UserID,
		f.ProductID != "" && e.ProductID != f.ProductID,
		f.OrderID != "" && e.OrderID != f.OrderID,
		!f.From.IsZero() && e.CreatedAt.Before(f.From),
		!f.To.IsZero() && e.CreatedAt.After(f.To):
		return false
	}
	return true
}

func (m *memoryStore) List(_ context.Context, f Filter, limit, offset int) ([]Entry, int, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = f, limit, offset
	var matched []Entry
	for _, e := range m.entries {
		if m.matches(f, e) {
			matched = append(matched, e)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *memoryStore) CountByType(_ context.Context, from, to time.Time) ([]TypeCount, error) {
	var out []TypeCount
	index := map[string]int{}
	for _, e := range m.entries {
		if !m.matches(Filter{From: from, To: to}, e) {
			continue
		}
		i, ok := index[e.Type]
		if !ok {
			i = len(out)
			index[e.Type] = i
			out = append(out, TypeCount{Type: e.Type})
		}
		out[i].Count++
	}
	return out, nil
}

func (m *memoryStore) CountByUser(_ context.Context, from, to time.Time, _ int) ([]UserCount, error) {
	var out []UserCount
	index := map[string]int{}
	for _, e := range m.entries {
		if e.UserID == "" || !m.matches(Filter{From: from, To: to}, e) {
			continue
		}
		i, ok := index[e.UserID]
		if !ok {
			i = len(out)
			index[e.UserID] = i
			out = append(out, UserCount{UserID: e.UserID})
		}
		out[i].Count++
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2026, 3, d, 10, 0, 0, 0, time.UTC)
}

func fixtures() *memoryStore {
	return &memoryStore{entries: []Entry{
		{ID: "a5", Type: "order_updated", UserID: "u1", OrderID: "o1", ProductID: "p1", CreatedAt: day(5)},
		{ID: "a4", Type: "notification_sent", UserID: "system", OrderID: "o1", CreatedAt: day(4)},
		{ID: "a3", Type: "test_status_transition", UserID: "u1", ProductID: "p1", CreatedAt: day(3)},
		{ID: "a2", Type: "inbound", UserID: "u2", ProductID: "p2", CreatedAt: day(2)},
		{ID: "a1", Type: "inbound", UserID: "u2", ProductID: "p3", CreatedAt: day(1)},
	}}
}

func TestListPaginates(t *testing.T) {
	store := fixtures()
	svc := NewService(store)

	page, err := svc.List(context.Background(), Filter{}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, 2, store.lastOffset)
	require.Equal(t, []string{"a3", "a2"}, ids(page.Data))
	require.Equal(t, 5, page.Pagination.Total)
	require.Equal(t, 3, page.Pagination.Pages)
	require.True(t, page.Pagination.HasNext)

	page, err = svc.List(context.Background(), Filter{}, 3, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"a1"}, ids(page.Data))
	require.False(t, page.Pagination.HasNext)

	page, err = svc.List(context.Background(), Filter{}, 9, 2)
	require.NoError(t, err)
	require.NotNil(t, page.Data)
	require.Empty(t, page.Data)
}

func TestListClampsLimit(t *testing.T) {
	store := fixtures()
	svc := NewService(store)

	_, err := svc.List(context.Background(), Filter{}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, defaultLimit, store.lastLimit)
	require.Equal(t, 0, store.lastOffset)

	_, err = svc.List(context.Background(), Filter{}, 1, 5000)
	require.NoError(t, err)
	require.Equal(t, maxLimit, store.lastLimit)
}

func TestListFilters(t *testing.T) {
	svc := NewService(fixtures())
	cases := []struct {
		filter Filter
		want   []string
	}{
		{Filter{Type: "inbound"}, []string{"a2", "a1"}},
		{Filter{ProductID: "p1"}, []string{"a5", "a3"}},
		{Filter{OrderID: "o1"}, []string{"a5", "a4"}},
		{Filter{UserID: "u1", ProductID: "p1"}, []string{"a5", "a3"}},
		{Filter{From: day(2), To: day(4)}, []string{"a4", "a3", "a2"}},
	}
	for _, tc := range cases {
		page, err := svc.List(context.Background(), tc.filter, 1, 50)
		require.NoError(t, err)
		require.Equal(t, tc.want, ids(page.Data), "%+v", tc.filter)
	}
}

func TestParseDates(t *testing.T) {
	start, err := ParseStart("2026-03-02")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)

	end, err := ParseEnd("2026-03-02")
	require.NoError(t, err)
	require.True(t, end.After(day(2)))
	require.True(t, end.Before(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))

	exact, err := ParseEnd("2026-03-02T08:00:00Z")
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), exact)

	zero, err := ParseStart("")
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	_, err = ParseEnd("last week")
	require.ErrorIs(t, err, ErrInvalidDate)
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestSummary(t *testing.T) {
	svc := NewService(fixtures())

	summary, err := svc.Summary(context.Background(), SummaryInput{StartDate: "2026-03-02", EndDate: "2026-03-05"})
	require.NoError(t, err)
	require.Equal(t, []TypeCount{
		{Type: "order_updated", Count: 1},
		{Type: "notification_sent", Count: 1},
		{Type: "test_status_transition", Count: 1},
		{Type: "inbound", Count: 1},
	}, summary.ByType)
	require.Equal(t, []string{"a5", "a4", "a3", "a2"}, ids(summary.Recent))
	require.Len(t, summary.Users, 3)

	_, err = svc.Summary(context.Background(), SummaryInput{Type: "detailed"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestBuildWhere(t *testing.T) {
	where, args := buildWhere(Filter{})
	require.Empty(t, where)
	require.Empty(t, args)

	where, args = buildWhere(Filter{Type: "inbound", OrderID: "o1", From: day(1)})
	require.Equal(t, " WHERE a.type = $1 AND a.order_id = $2 AND a.created_at >= $3", where)
	require.Equal(t, []any{"inbound", "o1", day(1)}, args)
}

func ids(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}

func newTestRouter(store Store, principal *shared.Principal) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(shared.ContextWithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(nil, NewService(store)).MountRoutes(r)
	return r
}

func TestHandlerList(t *testing.T) {
	router := newTestRouter(fixtures(), &shared.Principal{UserID: "u1", Role: shared.RoleStaff})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities?productId=p1&limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []Entry        `json:"data"`
		Pagination map[string]any `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"a5"}, ids(body.Data))
	require.Equal(t, float64(2), body.Pagination["total"])
	require.Equal(t, float64(2), body.Pagination["pages"])
	require.Equal(t, true, body.Pagination["hasNext"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities?startDate=yesterday", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/activities", strings.NewReader(`{"type":"summary","startDate":"2026-03-04"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"activityStats"`)
}

func TestHandlerRequiresStaff(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(fixtures(), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	newTestRouter(fixtures(), &shared.Principal{UserID: "s1", Role: shared.RoleSeller}).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/activities", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
