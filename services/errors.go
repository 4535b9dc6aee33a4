package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed or missing input.
	ErrValidation = errors.New("invalid input")
	// ErrAuth marks a missing, invalid or inactive identity.
	ErrAuth = errors.New("authentication credentials were not provided or are invalid")
	// ErrNotFound marks a missing resource, including one owned by someone else.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is the single error for every failed token request.
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFoundOr translates gorm's missing-row error into ErrNotFound and wraps
// anything else with context.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", what, ErrNotFound)
	}
	return fmt.Errorf("database error retrieving %s: %w", what, err)
}
