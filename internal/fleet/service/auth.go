package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/cryptox"
	"github.com/fleetyard/fleetyard/pkg/idx"
)

// AuthService orchestrates login, registration and logout on top of the
// credential store and the token service.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
}

// Login verifies the email/password pair and, on success, issues an access
// and refresh token pair. Every failure mode short of an infrastructure
// error collapses into ErrInvalidCredentials so the response never reveals
// whether the email exists, is inactive, or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.Client, domain.TokenPair, error) {
	// Emails match exactly as stored; no case folding.
	email = strings.TrimSpace(email)

	client, err := s.Store.Clients().GetActiveClientByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.Client{}, domain.TokenPair{}, fmt.Errorf("lookup client: %w", err)
	}

	// A mismatch and a corrupt stored digest both read as bad credentials;
	// neither may leak which one it was.
	if err := cryptox.VerifyPassword(password, client.PasswordHash); err != nil {
		return domain.Client{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, client)
	if err != nil {
		return domain.Client{}, domain.TokenPair{}, err
	}

	slog.InfoContext(ctx, "client logged in", "client_id", client.ID, "role", client.Role)
	return client, pair, nil
}

// Register creates a new client with an argon2id password hash. The email
// is stored exactly as given and later matched case-sensitively. An empty
// role defaults to NORMAL_USER. Duplicate emails surface as
// ErrDuplicateEmail whether caught by the pre-check or the unique index.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (domain.Client, error) {
	email = strings.TrimSpace(email)
	if role == "" {
		role = domain.RoleNormalUser
	}
	if !role.Valid() {
		return domain.Client{}, fmt.Errorf("invalid role %q", role)
	}

	exists, err := s.Store.Clients().ClientEmailExists(ctx, email)
	if err != nil {
		return domain.Client{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Client{}, ErrDuplicateEmail
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Client{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	client := domain.Client{
		ID:           idx.New().String(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Client{}, ErrDuplicateEmail
		}
		return domain.Client{}, fmt.Errorf("create client: %w", err)
	}

	slog.InfoContext(ctx, "client registered", "client_id", client.ID, "role", client.Role)
	return client, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh
// token remains valid; only the access token is re-minted.
func (s *AuthService) Refresh(ctx context.Context, opaque string) (domain.Client, domain.TokenPair, error) {
	client, access, err := s.Tokens.RedeemRefreshToken(ctx, opaque)
	if err != nil {
		return domain.Client{}, domain.TokenPair{}, err
	}

	pair := domain.TokenPair{
		AccessToken:  access,
		RefreshToken: opaque,
		ExpiresIn:    int64(s.Tokens.AccessTTL.Seconds()),
	}
	return client, pair, nil
}

// Logout revokes the presented refresh token. Unknown tokens succeed
// silently so repeated logouts are harmless.
func (s *AuthService) Logout(ctx context.Context, opaque string) error {
	return s.Tokens.RevokeRefreshToken(ctx, opaque)
}

func (s *AuthService) issuePair(ctx context.Context, client domain.Client) (domain.TokenPair, error) {
	access, err := s.Tokens.IssueAccessToken(client)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refresh, err := s.Tokens.IssueRefreshToken(ctx, client)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.Tokens.AccessTTL.Seconds()),
	}, nil
}
