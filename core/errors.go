package core

import "errors"

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrNotThreadOwner is returned when someone other than the owner (or a
// moderator) tries to close a help request.
var ErrNotThreadOwner = errors.New("not the owner of this help request")

// IsNotFoundError checks if an error is a "not found" error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
