package store

import (
	"context"
	"errors"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement it. Sub-repositories keep concerns separated and testable.
type Store interface {
	Clients() Clients
	Vehicles() Vehicles
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction; fn returning an error rolls
	// back, nil commits. Preferred over Tx for multi-step mutations.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store with Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID returns a client regardless of active flag.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// GetActiveClientByEmail is the only lookup used by authentication.
	// Deactivated accounts are invisible here, so they can never obtain
	// tokens even with the correct password.
	GetActiveClientByEmail(ctx context.Context, email string) (domain.Client, error)

	// ClientEmailExists reports whether any client (active or not) holds
	// the email. Used by registration to reject duplicates.
	ClientEmailExists(ctx context.Context, email string) (bool, error)

	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client (id is provided by the app via ULID).
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClient overwrites name, password hash, role and active flag and
	// bumps updated_at.
	UpdateClient(ctx context.Context, c domain.Client) error

	// DeactivateClient clears the active flag; the soft-delete path.
	DeactivateClient(ctx context.Context, id string) error

	// DeleteClient removes the row. Refresh tokens must be deleted first
	// (see RefreshTokens.DeleteClientRefreshTokens).
	DeleteClient(ctx context.Context, id string) error
}

type Vehicles interface {
	GetVehicleByID(ctx context.Context, id string) (domain.Vehicle, error)
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	ListAvailableVehicles(ctx context.Context) ([]domain.Vehicle, error)

	// SearchVehicles matches brand or model, case-insensitive substring.
	SearchVehicles(ctx context.Context, brand, model string) ([]domain.Vehicle, error)

	// LicensePlateExists reports whether the plate is already registered.
	LicensePlateExists(ctx context.Context, plate string) (bool, error)

	CreateVehicle(ctx context.Context, v domain.Vehicle) error
	UpdateVehicle(ctx context.Context, v domain.Vehicle) error
	DeleteVehicle(ctx context.Context, id string) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by the token's fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked, sets updated_at. No-op when the
	// hash is unknown, which keeps logout idempotent.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeClientRefreshTokens bulk-revokes every token a client holds,
	// e.g. on password change.
	RevokeClientRefreshTokens(ctx context.Context, clientID string) error

	// DeleteClientRefreshTokens removes every token a client holds; run
	// before deleting the client row.
	DeleteClientRefreshTokens(ctx context.Context, clientID string) error

	// DeleteExpiredRefreshTokens removes tokens whose expiry precedes now
	// and reports how many were deleted. Housekeeping only; revoked but
	// unexpired tokens are kept so a redeem can still tell revoked apart
	// from never-seen.
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
