package domain

import "time"

// Role is the coarse-grained permission tier for a client account.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleNormalUser Role = "NORMAL_USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleNormalUser
}

// Client is a registered account: the principal that authenticates against
// the API and, for admins, manages the fleet. Deactivation (Active=false)
// is the long-term removal model; hard deletes cascade to refresh tokens.
type Client struct {
	ID           string
	Name         string
	Email        string // unique, matched as stored
	PasswordHash string // argon2id PHC encoded
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
