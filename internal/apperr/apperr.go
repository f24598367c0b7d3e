// Package apperr holds the error kinds shared by every engine. Services wrap
// these sentinels with context; handlers map them to HTTP statuses with
// errors.Is and never inspect error strings.
package apperr

import "errors"

var (
	// ErrUnauthenticated covers missing, malformed, expired and
	// badly-signed credentials.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden means the caller is authenticated but lacks the role
	// the operation requires.
	ErrForbidden = errors.New("operation not allowed for this role")

	// ErrInvalidToken marks a credential that verified cryptographically
	// but carries an unexpected payload shape. Reported separately from
	// ErrUnauthenticated so clients can tell the two apart.
	ErrInvalidToken = errors.New("invalid token structure")

	// ErrNotFound is returned for missing rows and for rows the caller
	// does not own. Ownership misses deliberately look identical to
	// absence.
	ErrNotFound = errors.New("not found")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrEmptyCart = errors.New("cart is empty")

	ErrEmailExists = errors.New("email is already registered")

	// ErrStoreUnavailable signals that one of the backing stores could
	// not be reached. The engines never retry; that is the store
	// client's business.
	ErrStoreUnavailable = errors.New("store unavailable")
)
