package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors of the approval engine. Handlers map these to HTTP codes;
// the bulk coordinator and the deadline scheduler count ErrConcurrentModification
// separately because it means "already handled", not a real failure.
var (
	ErrNotFound               = errors.New("record not found")
	ErrConcurrentModification = errors.New("submission was modified by another actor")
	ErrUnauthorized           = errors.New("not authorized")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInactiveAccount        = errors.New("account is inactive or suspended")
)

// ValidationError reports required columns missing at submit time, or an
// empty reason/notes on reject/return. No state change happens when it is
// returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// NewValidationError builds a ValidationError naming the offending fields
func NewValidationError(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// PermissionError reports an actor role that is not allowed to perform an
// action on submissions of the given owner type.
type PermissionError struct {
	Role      string
	OwnerType string
	Action    string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q may not %s %s submissions", e.Role, e.Action, e.OwnerType)
}
