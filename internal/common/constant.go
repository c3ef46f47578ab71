package common

import "time"

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// DefaultSessionTTL is how long a session stays valid after sign-in.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Roles stored in users.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Explanation difficulty tiers.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
