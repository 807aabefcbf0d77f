package store

import (
	"context"

	"namedex/internal/registry/models"
	id "namedex/pkg/domain"
)

// PersonSource is the read-only view of the upstream person registry that a
// rebuild pass walks. Implementations must never mutate upstream data.
type PersonSource interface {
	CountPeople(ctx context.Context) (int, error)
	ListPeople(ctx context.Context) ([]models.Person, error)
	// MembershipsFor returns the person's memberships with the Organization
	// already resolved on each row. Callers rely on that object identity and
	// must never re-look-up the organization by display name.
	MembershipsFor(ctx context.Context, personID id.PersonID) ([]models.Membership, error)
}

// PersonDirectory materializes a person by id. The variant index stores only
// person ids, so resolution uses this to hand back full records.
// Returns sentinel.ErrNotFound when the id is unknown.
type PersonDirectory interface {
	GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error)
}
