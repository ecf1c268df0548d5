// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound = errors.New("not found")

	// Integrity-guard errors: business-rule rejections, not storage failures.
	ErrAccountHasTransactions = errors.New("account has existing transactions")
	ErrSystemCategory         = errors.New("system categories cannot be deleted")
	ErrDuplicateName          = errors.New("name already in use")

	// Validation errors.
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidType      = errors.New("invalid type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrEmptyName        = errors.New("name cannot be empty")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
