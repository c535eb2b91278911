package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/worlddoor/fulfillment/internal/platform/httpx"
	"github.com/worlddoor/fulfillment/internal/shared"
)

// Middleware loads the session principal into the request context. Requests
// without a valid session pass through anonymously.
func Middleware(sessions *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessions.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			p, err := sessions.Load(r.Context(), token)
			if err != nil {
				if !errors.Is(err, shared.ErrSessionNotFound) && logger != nil {
					logger.Warn("load session", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole rejects requests without a principal (401) or whose principal
// holds none of roles (403).
func RequireRole(roles ...shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := shared.PrincipalFromContext(r.Context())
			if p == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			if len(roles) > 0 && !p.HasRole(roles...) {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticated requires any signed-in principal.
func Authenticated() func(http.Handler) http.Handler {
	return RequireRole()
}
