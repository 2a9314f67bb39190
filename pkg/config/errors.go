package config

import (
	"errors"
	"fmt"
)

// Error describes an inconsistent configuration value
type Error struct {
	Field string
	Issue string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Field, e.Issue)
}

// NewError creates a new configuration error
func NewError(field, issue string) *Error {
	return &Error{
		Field: field,
		Issue: issue,
	}
}

// IsError checks if an error is a configuration error
func IsError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}
