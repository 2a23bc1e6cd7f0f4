package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Common domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrConfiguration     = errors.New("configuration error")
	ErrAuthentication    = errors.New("authentication failed")
	ErrProfileResolution = errors.New("profile resolution failed")
	ErrPersistence       = errors.New("profile persistence failed")
	ErrNotAuthenticated  = errors.New("no authenticated user")
)

// ConfigurationError reports required settings that are missing at startup.
// It is fatal to every auth operation and is never retried.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: missing %s", strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// AuthenticationError carries the backend's rejection message verbatim.
type AuthenticationError struct {
	Reason string
	Status int // HTTP status returned by the auth backend, 0 on transport failure
}

func (e *AuthenticationError) Error() string {
	return e.Reason
}

func (e *AuthenticationError) Unwrap() error {
	return ErrAuthentication
}

// ProfileResolutionError is logged when a profile lookup times out or fails.
// The caller recovers with a fallback profile.
type ProfileResolutionError struct {
	UserID  string
	Timeout bool
	Err     error
}

func (e *ProfileResolutionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("profile lookup for %s timed out", e.UserID)
	}
	return fmt.Sprintf("profile lookup for %s failed: %v", e.UserID, e.Err)
}

func (e *ProfileResolutionError) Unwrap() []error {
	return []error{ErrProfileResolution, e.Err}
}

// PersistenceError is logged when a profile write fails after the local
// state has already been merged.
type PersistenceError struct {
	UserID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting profile %s: %v", e.UserID, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
