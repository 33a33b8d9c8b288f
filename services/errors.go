package services

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("role not permitted")
	ErrAuthorityOnly      = errors.New("profile is not an authority")
	ErrRoleUnverified     = errors.New("profile role could not be loaded")
	ErrInvalidTransition  = errors.New("status transition not allowed")
	ErrAlreadyVerified    = errors.New("issue already verified by user")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
