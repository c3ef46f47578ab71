// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/flippy/internal/common"
)

// User is a row of the users table. PasswordHash is a bcrypt hash and must
// never leave the server.
type User struct {
	ID                int64
	Email             string
	PasswordHash      string
	Role              string
	RemainingAPICalls int
	APIKey            *string
	CreatedAt         time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == common.RoleAdmin
}

// UserUpdate describes an admin mutation of a user. Nil fields are left
// unchanged; QuotaDelta is added to the current quota.
type UserUpdate struct {
	Role       *string
	QuotaDelta *int
}
