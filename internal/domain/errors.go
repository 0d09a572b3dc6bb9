package domain

import "errors"

var (
	// ErrUserNotFound is returned by stores when a user record does not exist
	// and the caller asked for a hard lookup rather than a nil result.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound indicates a completed-session record is missing.
	ErrSessionNotFound = errors.New("completed session not found")
)
