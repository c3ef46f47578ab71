// Package common defines shared constants and sentinel errors used across
// the Flippy server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthenticated = errors.New("not authenticated")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorForbidden       = errors.New("forbidden")

	// Validation errors. ErrValidation is usually wrapped with a field-specific message.
	ErrValidation      = errors.New("validation error")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidPassword = errors.New("invalid password")

	// Account errors.
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Quota errors.
	ErrQuotaExhausted = errors.New("no remaining free API calls")

	// External collaborator failures (AI service, object storage).
	ErrUpstream = errors.New("upstream service failure")
)
