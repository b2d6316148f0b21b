package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fleetyard/fleetyard/internal/fleet/domain"
	"github.com/fleetyard/fleetyard/internal/fleet/store"
	"github.com/fleetyard/fleetyard/pkg/cryptox"
	"github.com/fleetyard/fleetyard/pkg/idx"
	"github.com/fleetyard/fleetyard/pkg/jwtx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateEmail     = errors.New("duplicate_email")
	ErrDuplicatePlate     = errors.New("duplicate_license_plate")
	ErrRefreshNotFound    = errors.New("refresh_token_not_found")
	ErrRefreshRevoked     = errors.New("refresh_token_revoked")
	ErrRefreshExpired     = errors.New("refresh_token_expired")
	ErrClientInactive     = errors.New("client_inactive")
)

// TokenService issues and validates access tokens and manages the refresh
// token lifecycle. Signing and verification are pure over the immutable
// secret, so the service is safe for concurrent use without locking.
type TokenService struct {
	Signer     *jwtx.HS256
	Store      store.Store
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// IssueAccessToken signs a short-lived token carrying the client's email as
// subject and its role. Nothing is persisted; validity is signature + expiry.
func (s *TokenService) IssueAccessToken(c domain.Client) (string, error) {
	claims := jwtx.NewAccessClaims(c.Email, string(c.Role), s.Issuer, s.AccessTTL, time.Now())
	return s.Signer.Sign(claims)
}

// IssueRefreshToken mints an opaque 256-bit token, persists its fingerprint
// and returns the opaque value. The caller is the only holder of the value.
func (s *TokenService) IssueRefreshToken(ctx context.Context, c domain.Client) (string, error) {
	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := time.Now()
	record := domain.RefreshToken{
		ID:        idx.New().String(),
		ClientID:  c.ID,
		TokenHash: cryptox.FingerprintToken(opaque),
		ExpiresAt: now.Add(s.RefreshTTL),
		Revoked:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, record); err != nil {
		return "", fmt.Errorf("persist refresh token: %w", err)
	}

	return opaque, nil
}

// ValidateAccessToken verifies the raw token and returns its claims. The
// structural pre-check runs before any cryptography, so garbage input fails
// fast as jwtx.ErrMalformed. Absence of a token is the caller's concern;
// an empty string is simply malformed here.
func (s *TokenService) ValidateAccessToken(raw string) (jwtx.Claims, error) {
	return s.Signer.Verify(raw)
}

// ExtractSubject returns the subject of a signature-valid token without
// enforcing expiry. Useful for logging identity from a near-expired token;
// never a substitute for ValidateAccessToken in trust decisions.
func (s *TokenService) ExtractSubject(raw string) (string, error) {
	return s.Signer.Subject(raw)
}

// RedeemRefreshToken exchanges a stored, usable refresh token for a fresh
// access token and the owning client. The refresh token itself is not
// rotated: it stays valid until its own expiry or an explicit revoke.
func (s *TokenService) RedeemRefreshToken(ctx context.Context, opaque string) (domain.Client, string, error) {
	hash := cryptox.FingerprintToken(opaque)

	record, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, "", ErrRefreshNotFound
		}
		return domain.Client{}, "", err
	}

	// The read above reflects any committed revoke; a token already marked
	// revoked never redeems, regardless of request interleaving.
	if record.Revoked {
		return domain.Client{}, "", ErrRefreshRevoked
	}
	if !time.Now().Before(record.ExpiresAt) {
		return domain.Client{}, "", ErrRefreshExpired
	}

	client, err := s.Store.Clients().GetClientByID(ctx, record.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, "", ErrRefreshNotFound
		}
		return domain.Client{}, "", err
	}
	if !client.Active {
		return domain.Client{}, "", ErrClientInactive
	}

	access, err := s.IssueAccessToken(client)
	if err != nil {
		return domain.Client{}, "", err
	}

	return client, access, nil
}

// RevokeRefreshToken marks a single refresh token revoked by its opaque
// value. Unknown or already-revoked tokens are a no-op, keeping logout
// idempotent.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, opaque string) error {
	return s.Store.RefreshTokens().RevokeRefreshToken(ctx, cryptox.FingerprintToken(opaque))
}

// RevokeAllForClient revokes every refresh token the client holds. Used on
// password change, deactivation and logout-everywhere.
func (s *TokenService) RevokeAllForClient(ctx context.Context, clientID string) error {
	return s.Store.RefreshTokens().RevokeClientRefreshTokens(ctx, clientID)
}
