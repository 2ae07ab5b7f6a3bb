package models

import "time"

type UserRole string

const (
	UserRoleOperator UserRole = "operator"
	UserRoleBuyer    UserRole = "buyer"
	UserRoleManager  UserRole = "manager"
)

// Valid reports whether the role belongs to the closed set the database
// schema allows. Anything else read back from storage is a data integrity
// violation, not an application error.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleOperator, UserRoleBuyer, UserRoleManager:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         UserRole
}

// RefreshToken is the persisted record behind a signed refresh token.
// The row, not the signed expiry, is the source of truth for revocation
// and expiry of refresh tokens.
type RefreshToken struct {
	ID        int64
	JTI       string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// RevokedToken is an append-only revocation registry entry. Presence of a
// jti here invalidates the token regardless of the RefreshToken row state.
type RevokedToken struct {
	ID        int64
	JTI       string
	RevokedAt time.Time
}
