package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/worlddoor/fulfillment/internal/auth"
	"github.com/worlddoor/fulfillment/internal/shared"
	_ "github.com/worlddoor/fulfillment/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || !strings.EqualFold(s.user.Email, email) {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func newRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "worlddoor_session", time.Hour, false)
	handler := auth.NewHandler(nil, auth.NewService(repo, sessions), sessions)

	r := chi.NewRouter()
	r.Use(auth.Middleware(sessions, nil))
	handler.MountRoutes(r)
	r.With(auth.RequireRole(shared.RoleAdmin)).Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, sessions
}

func seller(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{ID: "u1", Email: "seller@example.com", Role: shared.RoleSeller, PasswordHash: string(hash)}
}

func login(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesSession(t *testing.T) {
	router, _ := newRouter(t, &stubRepo{user: seller(t)})

	rec := login(t, router, `{"email":"seller@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Result().Cookies())

	var body struct {
		Token string           `json:"token"`
		User  shared.Principal `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	require.Equal(t, shared.RoleSeller, body.User.Role)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "seller@example.com")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := newRouter(t, &stubRepo{user: seller(t)})

	rec := login(t, router, `{"email":"seller@example.com","password":"wrong-password"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = login(t, router, `{"email":"nobody@example.com","password":"password123"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginValidatesInput(t *testing.T) {
	router, _ := newRouter(t, &stubRepo{})
	rec := login(t, router, `{"email":"not-an-email","password":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireRole(t *testing.T) {
	router, sessions := newRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := sessions.Create(context.Background(), shared.Principal{UserID: "u1", Role: shared.RoleSeller})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	token, err = sessions.Create(context.Background(), shared.Principal{UserID: "a1", Role: shared.RoleAdmin})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	router, sessions := newRouter(t, &stubRepo{})
	token, err := sessions.Create(context.Background(), shared.Principal{UserID: "u1", Role: shared.RoleStaff})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	_, err = sessions.Load(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrSessionNotFound)
}
