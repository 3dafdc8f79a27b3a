package constants

import "errors"

// Configuration errors.
var (
	ErrNoAPIConfigured   = errors.New("no API endpoint configured, use 'ipam config set api <url>' to set one")
	ErrNotLoggedIn       = errors.New("not logged in, use 'ipam login' first")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrPasswordRequired  = errors.New("password is required")
	ErrUsernameRequired  = errors.New("username is required")
	ErrInvalidPageSize   = errors.New("page size must be positive")
	ErrInvalidIdentifier = errors.New("identifier must be a positive integer")
	ErrInvalidValue      = errors.New("invalid configuration value")
)

// Operation errors.
var (
	ErrNothingToUpdate = errors.New("no fields to update were given")
	ErrDeleteAborted   = errors.New("delete aborted")
	ErrNotATerminal    = errors.New("interactive browsing requires a terminal")
)
