package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Typed UUID identifiers for the upstream registry entities. Distinct types
// keep person and organization ids from being swapped at call sites; the
// compiler enforces what a bare uuid.UUID cannot.

// PersonID identifies a canonical person in the upstream registry.
type PersonID uuid.UUID

// OrganizationID identifies an organization in the upstream registry.
type OrganizationID uuid.UUID

// ParsePersonID validates and returns a PersonID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParsePersonID(s string) (PersonID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PersonID{}, fmt.Errorf("person id: %w", err)
	}
	return PersonID(u), nil
}

// ParseOrganizationID validates and returns an OrganizationID.
func ParseOrganizationID(s string) (OrganizationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return OrganizationID{}, fmt.Errorf("organization id: %w", err)
	}
	return OrganizationID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, fmt.Errorf("empty id")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", s, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil id")
	}
	return u, nil
}

func (id PersonID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id PersonID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id OrganizationID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the id is the zero value.
func (id OrganizationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
