package store

import (
	"context"
	"sync"

	"namedex/internal/registry/models"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
)

// MemorySource is an in-memory person source for tests and dev mode.
type MemorySource struct {
	mu          sync.RWMutex
	people      []models.Person
	memberships map[id.PersonID][]models.Membership
}

// NewMemory creates an empty in-memory person source.
func NewMemory() *MemorySource {
	return &MemorySource{
		memberships: make(map[id.PersonID][]models.Membership),
	}
}

// AddPerson registers a person. Returns the person for fixture chaining.
func (s *MemorySource) AddPerson(p models.Person) models.Person {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people = append(s.people, p)
	return p
}

// AddMembership attaches a membership to its person.
func (s *MemorySource) AddMembership(m models.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships[m.Person] = append(s.memberships[m.Person], m)
}

func (s *MemorySource) CountPeople(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.people), nil
}

func (s *MemorySource) ListPeople(ctx context.Context) ([]models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Person, len(s.people))
	copy(out, s.people)
	return out, nil
}

func (s *MemorySource) MembershipsFor(ctx context.Context, personID id.PersonID) ([]models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms := s.memberships[personID]
	out := make([]models.Membership, len(ms))
	copy(out, ms)
	return out, nil
}

func (s *MemorySource) GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.people {
		if p.ID == personID {
			return p, nil
		}
	}
	return models.Person{}, sentinel.ErrNotFound
}
