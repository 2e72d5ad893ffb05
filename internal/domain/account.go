package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrAccountUserNotFound  = errors.New("account user not found")
	ErrAccountNotAuthorized = fmt.Errorf("account not authorized: %w", ErrForbidden)
)

// AccountUpdateError collects per-field failures of an account update.
type AccountUpdateError struct {
	FieldErrors map[string]string
}

func (e *AccountUpdateError) Error() string {
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.FieldErrors[f])
	}
	return "account update failed: " + strings.Join(parts, "; ")
}

// VisibilityConfig selects which account fields are shown to other users.
type VisibilityConfig struct {
	DefaultVisibility string   `json:"default_visibility"`
	ShareableFields   []string `json:"shareable_fields"`
	PublicFields      []string `json:"public_fields"`
}

// DefaultVisibilityConfig is used when the caller supplies none.
func DefaultVisibilityConfig() VisibilityConfig {
	return VisibilityConfig{
		DefaultVisibility: VisibilityPrivate,
		ShareableFields:   []string{"username", "name", "country", "language"},
		PublicFields:      []string{"username"},
	}
}
