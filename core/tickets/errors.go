package tickets

import (
	"errors"
	"fmt"
	"strings"

	"ticket-desk/core/rbac"
)

var ErrNotFound = errors.New("ticket not found")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ForbiddenError is returned when the role lacks a permission. Fields lists
// the patch fields that were refused, when the denial came from an update.
type ForbiddenError struct {
	Role       rbac.Role
	Permission rbac.Permission
	Fields     []string
}

func (e *ForbiddenError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("role %q may not change %s", e.Role, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("role %q lacks %s", e.Role, e.Permission)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	ok := errors.As(err, &v)
	return v, ok
}

func AsForbidden(err error) (*ForbiddenError, bool) {
	var f *ForbiddenError
	ok := errors.As(err, &f)
	return f, ok
}
