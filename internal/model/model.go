// Package model contains the domain types shared by every layer.
// Keep it free of persistence and transport concerns.
package model

import (
	"fmt"
	"strings"
	"unicode"
)

// Identifier is the opaque token naming a user's document collection ("health ID").
// It is the sole access key to a locker.
type Identifier string

func (id Identifier) String() string { return string(id) }

// IsZero reports whether no identifier is set.
func (id Identifier) IsZero() bool { return id == "" }

// ParseIdentifier trims candidate and checks it can be used as an identifier.
// Identifiers namespace storage paths, so path separators and control
// characters are rejected.
func ParseIdentifier(candidate string) (Identifier, error) {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return "", &ValidationError{Field: "health_id", Reason: "must not be empty"}
	}
	for _, r := range s {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return "", &ValidationError{Field: "health_id", Reason: fmt.Sprintf("contains invalid character %q", r)}
		}
	}
	return Identifier(s), nil
}
