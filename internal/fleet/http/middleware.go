package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
)

// Authenticate resolves the Authorization header into a request principal.
// It never rejects: a missing, malformed, expired or otherwise invalid
// token simply leaves the request anonymous, and the route guards decide
// whether anonymous is acceptable. Verification failures are logged at
// debug so a misbehaving client is visible without flooding the logs.
func Authenticate(tokens *service.TokenService, st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := tokens.ValidateAccessToken(raw)
			if err != nil {
				slog.DebugContext(r.Context(), "access token rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			client, err := st.Clients().GetActiveClientByEmail(r.Context(), claims.Subject)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					slog.ErrorContext(r.Context(), "principal lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), client)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFrom(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects anonymous requests with 401 and authenticated
// requests lacking the role with 403.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFrom(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
				return
			}
			if principal.Role != role {
				writeError(w, http.StatusForbidden, "forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// The scheme match is case-insensitive per RFC 6750.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
