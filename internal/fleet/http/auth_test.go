package http_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	fleethttp "github.com/fleetyard/fleetyard/internal/fleet/http"
)

func TestAuthEndpoints_LoginFlow(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "flow@example.com", domain.RoleNormalUser)

	rec := ts.do(t, http.MethodPost, "/v1/auth/login", "", fleethttp.LoginRequest{
		Email:    "flow@example.com",
		Password: "sup3r-secret!",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	tokens := decodeJSON[fleethttp.TokenResponse](t, rec)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.Equal(t, int64(15*60), tokens.ExpiresIn)
	require.NotEmpty(t, tokens.ClientID)
	require.Equal(t, "flow@example.com", tokens.Email)
	require.Equal(t, string(domain.RoleNormalUser), tokens.Role)
}

func TestAuthEndpoints_LoginRejectsBadCredentials(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "victim@example.com", domain.RoleNormalUser)

	rec := ts.do(t, http.MethodPost, "/v1/auth/login", "", fleethttp.LoginRequest{
		Email:    "victim@example.com",
		Password: "guess-one",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	resp := decodeJSON[fleethttp.ErrorResponse](t, rec)
	require.Equal(t, "invalid_credentials", resp.Error)

	// Unknown account yields the identical error body.
	rec = ts.do(t, http.MethodPost, "/v1/auth/login", "", fleethttp.LoginRequest{
		Email:    "nobody@example.com",
		Password: "guess-one",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, resp, decodeJSON[fleethttp.ErrorResponse](t, rec))
}

func TestAuthEndpoints_LoginValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/login", "", fleethttp.LoginRequest{Email: "x@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/auth/login", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthEndpoints_Register(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/register", "", fleethttp.RegisterRequest{
		Name:     "New Client",
		Email:    "new@example.com",
		Password: "long-enough-pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	created := decodeJSON[fleethttp.ClientResponse](t, rec)
	require.Equal(t, "new@example.com", created.Email)
	require.Equal(t, string(domain.RoleNormalUser), created.Role)
	require.True(t, created.Active)

	// Duplicate email conflicts.
	rec = ts.do(t, http.MethodPost, "/v1/auth/register", "", fleethttp.RegisterRequest{
		Name:     "Copycat",
		Email:    "new@example.com",
		Password: "long-enough-pw",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_email", decodeJSON[fleethttp.ErrorResponse](t, rec).Error)
}

func TestAuthEndpoints_RegisterValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/register", "", fleethttp.RegisterRequest{
		Name:     "Short",
		Email:    "short@example.com",
		Password: "tiny",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/auth/register", "", fleethttp.RegisterRequest{
		Name:     "Bad Email",
		Email:    "not-an-email",
		Password: "long-enough-pw",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/auth/register", "", fleethttp.RegisterRequest{
		Name:     "Bad Role",
		Email:    "role@example.com",
		Password: "long-enough-pw",
		Role:     "OVERLORD",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthEndpoints_RefreshAndLogout(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "cycle@example.com", domain.RoleNormalUser)
	pair := ts.login(t, "cycle@example.com")

	rec := ts.do(t, http.MethodPost, "/v1/auth/refresh", "", fleethttp.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	refreshed := decodeJSON[fleethttp.TokenResponse](t, rec)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Equal(t, pair.RefreshToken, refreshed.RefreshToken)

	// Logout revokes; a second logout still succeeds.
	rec = ts.do(t, http.MethodPost, "/v1/auth/logout", "", fleethttp.LogoutRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/v1/auth/logout", "", fleethttp.LogoutRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	// The revoked token no longer refreshes.
	rec = ts.do(t, http.MethodPost, "/v1/auth/refresh", "", fleethttp.RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_grant", decodeJSON[fleethttp.ErrorResponse](t, rec).Error)
}

func TestAuthEndpoints_RefreshUnknownToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/auth/refresh", "", fleethttp.RefreshRequest{
		RefreshToken: "never-issued",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthEndpoints_LoginRateLimited(t *testing.T) {
	ts := newTestServer(t)

	req := fleethttp.LoginRequest{Email: "hammer@example.com", Password: "whatever-pw"}
	var last int
	for range 6 {
		rec := ts.do(t, http.MethodPost, "/v1/auth/login", "", req)
		last = rec.Code
	}
	require.Equal(t, http.StatusTooManyRequests, last)
}
