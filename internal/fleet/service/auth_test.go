package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
)

func TestAuthService_LoginSuccess(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)
	registerTestClient(t, auth, "rider@example.com", domain.RoleNormalUser)

	client, pair, err := auth.Login(ctx, "rider@example.com", "sup3r-secret!")
	require.NoError(t, err)
	require.Equal(t, "rider@example.com", client.Email)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int64(15*60), pair.ExpiresIn)

	claims, err := auth.Tokens.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "rider@example.com", claims.Subject)
	require.Equal(t, string(domain.RoleNormalUser), claims.Role)
}

func TestAuthService_EmailMatchesAsStored(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)

	stored := registerTestClient(t, auth, "Mixed.Case@Example.COM", domain.RoleNormalUser)
	require.Equal(t, "Mixed.Case@Example.COM", stored.Email)

	// The exact stored spelling logs in; any other casing does not.
	_, _, err := auth.Login(ctx, "Mixed.Case@Example.COM", "sup3r-secret!")
	require.NoError(t, err)

	_, _, err = auth.Login(ctx, "mixed.case@example.com", "sup3r-secret!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = auth.Login(ctx, "MIXED.CASE@EXAMPLE.COM", "sup3r-secret!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	// Surrounding whitespace is trimmed, not part of the address.
	_, _, err = auth.Login(ctx, "  Mixed.Case@Example.COM ", "sup3r-secret!")
	require.NoError(t, err)
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)
	client := registerTestClient(t, auth, "known@example.com", domain.RoleNormalUser)

	// Wrong password for a real account.
	_, _, err := auth.Login(ctx, "known@example.com", "wrong-password")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	// Account that does not exist at all.
	_, _, err = auth.Login(ctx, "ghost@example.com", "sup3r-secret!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)

	// Deactivated account with the correct password.
	require.NoError(t, st.Clients().DeactivateClient(ctx, client.ID))
	_, _, err = auth.Login(ctx, "known@example.com", "sup3r-secret!")
	require.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_RegisterDefaultsAndDuplicates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)

	client, err := auth.Register(ctx, "Plain", "plain@example.com", "pw-longenough", "")
	require.NoError(t, err)
	require.Equal(t, domain.RoleNormalUser, client.Role)
	require.True(t, client.Active)
	require.NotEqual(t, "pw-longenough", client.PasswordHash)

	_, err = auth.Register(ctx, "Again", "plain@example.com", "pw-longenough", domain.RoleAdmin)
	require.ErrorIs(t, err, service.ErrDuplicateEmail)

	// A different casing is a different stored email, not a duplicate.
	other, err := auth.Register(ctx, "Again", "PLAIN@example.com", "pw-longenough", "")
	require.NoError(t, err)
	require.Equal(t, "PLAIN@example.com", other.Email)
}

func TestAuthService_RegisterRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)

	_, err := auth.Register(ctx, "Odd", "odd@example.com", "pw-longenough", domain.Role("SUPERUSER"))
	require.Error(t, err)
}

func TestAuthService_RefreshKeepsRefreshToken(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)
	registerTestClient(t, auth, "keep@example.com", domain.RoleNormalUser)

	_, pair, err := auth.Login(ctx, "keep@example.com", "sup3r-secret!")
	require.NoError(t, err)

	client, refreshed, err := auth.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "keep@example.com", client.Email)
	require.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	require.NotEmpty(t, refreshed.AccessToken)
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	auth := newTestAuthService(t, st)
	registerTestClient(t, auth, "bye@example.com", domain.RoleNormalUser)

	_, pair, err := auth.Login(ctx, "bye@example.com", "sup3r-secret!")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, pair.RefreshToken))
	require.NoError(t, auth.Logout(ctx, pair.RefreshToken))
	require.NoError(t, auth.Logout(ctx, "never-issued-token"))

	_, _, err = auth.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, service.ErrRefreshRevoked)
}
