package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "worlddoor_session", time.Hour, false), mr
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Create(ctx, Principal{UserID: "u1", Email: "seller@example.com", Role: RoleSeller})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	p, err := sm.Load(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.IsSeller())

	require.NoError(t, sm.Destroy(ctx, token))
	_, err = sm.Load(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpires(t *testing.T) {
	sm, mr := newTestSessions(t)
	ctx := context.Background()

	token, err := sm.Create(ctx, Principal{UserID: "u1", Role: RoleStaff})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = sm.Load(ctx, token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTokenFromRequestPrefersBearer(t *testing.T) {
	sm, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "worlddoor_session", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", sm.TokenFromRequest(req))

	req.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", sm.TokenFromRequest(req))
}

func TestActorIDDefaultsToSystem(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "system", ActorID(ctx))

	ctx = ContextWithPrincipal(ctx, &Principal{UserID: "staff-1", Role: RoleStaff})
	assert.Equal(t, "staff-1", ActorID(ctx))
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(0, 0, 41)
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Total: 41, Pages: 3}, p)
	assert.Equal(t, 0, p.Offset())
	assert.Equal(t, 40, NewPagination(3, 20, 41).Offset())
}

func TestFormatYen(t *testing.T) {
	require.Equal(t, "¥2,800,000", FormatYen(2800000))
	require.Equal(t, "¥0", FormatYen(0))
}

func TestCodes(t *testing.T) {
	code := RandomCode(5)
	require.Len(t, code, 5)
	require.Equal(t, strings.ToUpper(code), code)
	require.Len(t, RandomCode(40), 40)

	at := time.UnixMilli(1700000000123)
	require.Equal(t, "ORD-1700000000123-ABCDE", TimestampCode("ORD", "-", at, "ABCDE"))
	require.Equal(t, "TRK1700000000123WXYZ", TimestampCode("TRK", "", at, "WXYZ"))
	require.Equal(t, "BATCH-1700000000123", TimestampCode("BATCH", "-", at, ""))
}
