package jwtx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not valid yet")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
)

// MinSecretLen is the minimum HMAC secret length in bytes. Anything shorter
// than the hash output weakens HS256 below its design strength.
const MinSecretLen = 32

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HS256 signs and verifies access tokens with a single symmetric secret.
// It is safe for concurrent use; the secret is never mutated after New.
type HS256 struct {
	secret []byte
	issuer string
}

// NewHS256 builds a signer/verifier around the given secret. The issuer is
// stamped into signed claims and enforced during verification when non-empty.
func NewHS256(secret []byte, issuer string) (*HS256, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwtx: secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	return &HS256{secret: secret, issuer: issuer}, nil
}

// Sign serialises and signs the claims.
func (h *HS256) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's shape, signature, expiry and issuer, returning
// the decoded claims on success. The shape check runs first so garbage input
// never reaches HMAC verification.
func (h *HS256) Verify(raw string) (Claims, error) {
	if !ValidShape(raw) {
		return Claims{}, ErrMalformed
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, h.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if h.issuer != "" && claims.Issuer != h.issuer {
		return Claims{}, ErrIssuer
	}

	return claims, nil
}

// Subject returns the subject claim of a signature-valid token without
// enforcing expiry. Use it for identity in logs from a near-expired token;
// trust decisions must go through Verify.
func (h *HS256) Subject(raw string) (string, error) {
	if !ValidShape(raw) {
		return "", ErrMalformed
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(raw, &claims, h.keyFunc); err != nil {
		return "", mapParseError(err)
	}

	return claims.Subject, nil
}

func (h *HS256) keyFunc(_ *jwt.Token) (any, error) {
	return h.secret, nil
}

// ValidShape reports whether raw is structurally plausible as a compact JWS:
// non-empty, a sane minimum length, and exactly two dot separators.
func ValidShape(raw string) bool {
	raw = strings.TrimSpace(raw)
	if len(raw) < 10 {
		return false
	}
	return strings.Count(raw, ".") == 2
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	default:
		return ErrMalformed
	}
}
