package models

import (
	"errors"
	"fmt"
)

// AuthErrorKind classifies an AuthError
type AuthErrorKind int

// AuthErrorKind constants
const (
	AuthInvalidCredentials AuthErrorKind = iota + 1
	AuthUsernameTaken
	AuthValidation
)

// AuthError is returned when the auth backend rejects a login, registration or profile update.
// Message is the backend's description, shown to the user verbatim.
type AuthError struct {
	Kind    AuthErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ValidationError is returned when input is rejected before any backend call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NetworkError is returned when a request to a remote service did not complete
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// PermissionError is returned when the session may not perform an action
type PermissionError struct {
	Action string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("not allowed to %s", e.Action)
}

// ServiceError is returned when a remote service answers with a failure that is not an auth error
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Validation errors raised by the gallery before any backend call
var (
	ErrMissingImage = &ValidationError{Field: "image", Message: "image is required"}
	ErrEmptyTitle   = &ValidationError{Field: "title", Message: "title is required"}
)

// ErrNotFound is returned by key-value stores for a missing key
var ErrNotFound = errors.New("key not found")

// ErrNotAuthenticated is returned when an action needs a logged-in session
var ErrNotAuthenticated = &PermissionError{Action: "do this without logging in"}
