package http_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	fleethttp "github.com/fleetyard/fleetyard/internal/fleet/http"
)

func TestAuthorization_AnonymousGets401(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/v1/vehicles", "/v1/clients"} {
		rec := ts.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
		require.Equal(t, "unauthorized", decodeJSON[fleethttp.ErrorResponse](t, rec).Error)
	}
}

func TestAuthorization_InvalidTokenIsAnonymous(t *testing.T) {
	ts := newTestServer(t)

	// A garbage token behaves exactly like no token at all.
	for _, token := range []string{"garbage", "a.b.c", "    "} {
		rec := ts.do(t, http.MethodGet, "/v1/vehicles", token, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "token %q", token)
	}
}

func TestAuthorization_NormalUserForbiddenOnAdminRoutes(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "normal@example.com", domain.RoleNormalUser)
	pair := ts.login(t, "normal@example.com")

	rec := ts.do(t, http.MethodGet, "/v1/clients", pair.AccessToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "forbidden", decodeJSON[fleethttp.ErrorResponse](t, rec).Error)

	rec = ts.do(t, http.MethodPost, "/v1/vehicles", pair.AccessToken, fleethttp.VehicleRequest{
		Brand: "Ford", Model: "Ka", Year: 2019, LicensePlate: "NOP-0001",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthorization_AdminAllowed(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "admin@example.com", domain.RoleAdmin)
	pair := ts.login(t, "admin@example.com")

	rec := ts.do(t, http.MethodGet, "/v1/clients", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorization_NormalUserCanReadVehicles(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "reader@example.com", domain.RoleNormalUser)
	pair := ts.login(t, "reader@example.com")

	rec := ts.do(t, http.MethodGet, "/v1/vehicles", pair.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthorization_DeactivatedClientTokenStopsWorking(t *testing.T) {
	ts := newTestServer(t)
	client := ts.register(t, "cut@example.com", domain.RoleNormalUser)
	pair := ts.login(t, "cut@example.com")

	require.NoError(t, ts.store.Clients().DeactivateClient(context.Background(), client.ID))

	// Token is still signature-valid, but the principal lookup only sees
	// active accounts, so the request is treated as anonymous.
	rec := ts.do(t, http.MethodGet, "/v1/vehicles", pair.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerScheme_CaseInsensitive(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "case@example.com", domain.RoleNormalUser)
	pair := ts.login(t, "case@example.com")

	req, rec := newRawRequest(t, ts, "bearer "+pair.AccessToken)
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// A non-bearer scheme is ignored, leaving the request anonymous.
	req, rec = newRawRequest(t, ts, "Basic "+pair.AccessToken)
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenExpiryBoundary(t *testing.T) {
	ts := newTestServer(t)
	ts.register(t, "timing@example.com", domain.RoleNormalUser)

	// An expired-but-well-formed token never authenticates.
	ts.router.TokenService.AccessTTL = -time.Minute
	client, err := ts.store.Clients().GetActiveClientByEmail(context.Background(), "timing@example.com")
	require.NoError(t, err)
	expired, err := ts.router.TokenService.IssueAccessToken(client)
	require.NoError(t, err)

	rec := ts.do(t, http.MethodGet, "/v1/vehicles", expired, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
