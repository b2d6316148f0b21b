package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/internal/fleet/store/drivers/sqlite"
	"github.com/fleetyard/fleetyard/pkg/idx"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedClient(t *testing.T, st *sqlite.Store, email string) domain.Client {
	t.Helper()

	now := time.Now()
	c := domain.Client{
		ID:           idx.New().String(),
		Name:         "Seed Client",
		Email:        email,
		PasswordHash: "$argon2id$not-a-real-hash",
		Role:         domain.RoleNormalUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Clients().CreateClient(context.Background(), c))
	return c
}

func seedToken(t *testing.T, st *sqlite.Store, clientID, hash string, expires time.Time) domain.RefreshToken {
	t.Helper()

	now := time.Now()
	tok := domain.RefreshToken{
		ID:        idx.New().String(),
		ClientID:  clientID,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(context.Background(), tok))
	return tok
}

func TestClients_DuplicateEmail(t *testing.T) {
	st := newStore(t)
	seedClient(t, st, "dup@example.com")

	c := seedClient(t, st, "other@example.com")
	c.ID = idx.New().String()
	c.Email = "dup@example.com"
	err := st.Clients().CreateClient(context.Background(), c)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestClients_ActiveOnlyEmailLookup(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "hidden@example.com")

	got, err := st.Clients().GetActiveClientByEmail(ctx, "hidden@example.com")
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	require.NoError(t, st.Clients().DeactivateClient(ctx, c.ID))

	_, err = st.Clients().GetActiveClientByEmail(ctx, "hidden@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Still visible by ID, and the email still counts as taken.
	got, err = st.Clients().GetClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.Active)

	exists, err := st.Clients().ClientEmailExists(ctx, "hidden@example.com")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestClients_UpdateUnknownIsNotFound(t *testing.T) {
	st := newStore(t)

	err := st.Clients().UpdateClient(context.Background(), domain.Client{ID: idx.New().String()})
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.Clients().DeleteClient(context.Background(), idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_Lifecycle(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "tokens@example.com")

	future := time.Now().Add(time.Hour)
	tok := seedToken(t, st, c.ID, "hash-one", future)

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-one")
	require.NoError(t, err)
	require.Equal(t, tok.ID, got.ID)
	require.False(t, got.Revoked)
	require.True(t, got.Usable(time.Now()))

	require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, "hash-one"))

	got, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "hash-one")
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.False(t, got.Usable(time.Now()))

	// Revoking an unknown hash is silent.
	require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, "never-stored"))
}

func TestRefreshTokens_BulkOperations(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "bulk@example.com")
	other := seedClient(t, st, "other@example.com")

	future := time.Now().Add(time.Hour)
	seedToken(t, st, c.ID, "bulk-one", future)
	seedToken(t, st, c.ID, "bulk-two", future)
	kept := seedToken(t, st, other.ID, "kept", future)

	require.NoError(t, st.RefreshTokens().RevokeClientRefreshTokens(ctx, c.ID))

	for _, hash := range []string{"bulk-one", "bulk-two"} {
		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}
	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "kept")
	require.NoError(t, err)
	require.False(t, got.Revoked)
	require.Equal(t, kept.ID, got.ID)

	require.NoError(t, st.RefreshTokens().DeleteClientRefreshTokens(ctx, c.ID))
	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "bulk-one")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRefreshTokens_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "expiry@example.com")

	now := time.Now()
	seedToken(t, st, c.ID, "stale", now.Add(-time.Minute))
	seedToken(t, st, c.ID, "fresh", now.Add(time.Hour))

	n, err := st.RefreshTokens().DeleteExpiredRefreshTokens(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "fresh")
	require.NoError(t, err)
}

func TestRefreshTokens_DeleteClientCascades(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "cascade@example.com")
	seedToken(t, st, c.ID, "cascading", time.Now().Add(time.Hour))

	require.NoError(t, st.Clients().DeleteClient(ctx, c.ID))

	_, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "cascading")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "txn@example.com")

	wantErr := store.ErrNotFound
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Clients().DeactivateClient(ctx, c.ID); err != nil {
			return err
		}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// The deactivation rolled back with the failing fn.
	got, err := st.Clients().GetClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.True(t, got.Active)
}

func TestWithTx_Commits(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	c := seedClient(t, st, "commit@example.com")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Clients().DeactivateClient(ctx, c.ID)
	})
	require.NoError(t, err)

	got, err := st.Clients().GetClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}
