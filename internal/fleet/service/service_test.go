package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/service"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/internal/fleet/store/drivers/sqlite"
	"github.com/fleetyard/fleetyard/pkg/jwtx"
)

const testIssuer = "fleetyard-test"

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestTokenService(t *testing.T, st store.Store) *service.TokenService {
	t.Helper()

	signer, err := jwtx.NewHS256(testSecret, testIssuer)
	require.NoError(t, err)

	return &service.TokenService{
		Signer:     signer,
		Store:      st,
		Issuer:     testIssuer,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func newTestAuthService(t *testing.T, st store.Store) *service.AuthService {
	t.Helper()
	return &service.AuthService{Store: st, Tokens: newTestTokenService(t, st)}
}

func registerTestClient(t *testing.T, auth *service.AuthService, email string, role domain.Role) domain.Client {
	t.Helper()

	client, err := auth.Register(context.Background(), "Test Client", email, "sup3r-secret!", role)
	require.NoError(t, err)
	return client
}
