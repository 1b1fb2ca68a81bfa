package middleware

import (
	"context"
	"net/http"
	"strings"

	"go-session-auth-service/internal/http/response"
	"go-session-auth-service/internal/security"
	"go-session-auth-service/internal/service"
)

type contextKey string

const (
	PrincipalContextKey contextKey = "principal"

	// SessionCookieName carries the session uuid; the double-submit pair to
	// the Authorization bearer token.
	SessionCookieName = "sid"
)

// Authorizer is the slice of the auth service the middleware needs.
type Authorizer interface {
	Authorize(ctx context.Context, bearerToken, csrfCookie string) (*service.Principal, error)
}

// Authorize resolves the bearer token and sid cookie into a Principal. Both
// must be present and belong to the same live session.
func Authorize(auth Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := auth.Authorize(r.Context(), BearerToken(r), security.GetCookie(r, SessionCookieName))
			if err != nil {
				response.Error(w, r, http.StatusUnauthorized, "Session not valid")
				return
			}
			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken reads the Authorization header, tolerating both a bare token
// and the "Bearer <token>" form.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

func PrincipalFromContext(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(PrincipalContextKey).(*service.Principal)
	return p, ok
}
