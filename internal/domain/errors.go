package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors raised by domain services. Handlers translate them to HTTP
// statuses at the gin boundary; nothing below that layer knows about HTTP.
var (
	// ErrNotFound is returned when an entity is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrBadRequest signals an invalid state transition or malformed input.
	ErrBadRequest = errors.New("bad request")
	// ErrConflict signals a duplicate active resource.
	ErrConflict = errors.New("conflict")
	// ErrForbidden signals an authorization failure, including insufficient tenant role.
	ErrForbidden = errors.New("forbidden")
	// ErrRefreshTokenNotFound covers missing, expired, and revoked refresh
	// tokens alike so callers cannot distinguish the cases.
	ErrRefreshTokenNotFound = errors.New("refresh session not found or expired")
	// ErrAmbiguousTenantContext is returned when no tenant id was supplied and
	// none of the caller's memberships is flagged default.
	ErrAmbiguousTenantContext = errors.New("ambiguous tenant context")
	// ErrInvalidCredentials hides whether the email or the password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Wrap attaches a detail message to a sentinel while keeping errors.Is intact.
func Wrap(sentinel error, detail string) error {
	return fmt.Errorf("%w: %s", sentinel, detail)
}
