package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"namedex/internal/registry/models"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
)

// PostgresSource reads people, organizations, and memberships from PostgreSQL.
type PostgresSource struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed person source.
func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Schema is the upstream registry schema. The registry is owned by an
// external system; this DDL exists for integration tests and dev
// environments that seed their own copy.
const Schema = `
CREATE TABLE IF NOT EXISTS people (
	id               UUID PRIMARY KEY,
	name             TEXT NOT NULL,
	given_name       TEXT NOT NULL DEFAULT '',
	family_name      TEXT NOT NULL DEFAULT '',
	honorific_prefix TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS organizations (
	id             UUID PRIMARY KEY,
	name           TEXT NOT NULL,
	classification TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS organization_other_names (
	organization_id UUID NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	PRIMARY KEY (organization_id, name)
);

CREATE TABLE IF NOT EXISTS memberships (
	id              BIGSERIAL PRIMARY KEY,
	person_id       UUID NOT NULL REFERENCES people(id) ON DELETE CASCADE,
	organization_id UUID REFERENCES organizations(id) ON DELETE SET NULL,
	role            TEXT NOT NULL DEFAULT '',
	label           TEXT NOT NULL DEFAULT '',
	start_date      TEXT NOT NULL DEFAULT '',
	end_date        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS memberships_person_idx ON memberships (person_id);
`

// EnsureSchema creates the registry tables if they do not exist.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure registry schema: %w", err)
	}
	return nil
}

func (s *PostgresSource) CountPeople(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count people: %w", err)
	}
	return count, nil
}

func (s *PostgresSource) ListPeople(ctx context.Context) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, given_name, family_name, honorific_prefix
		FROM people
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		var p models.Person
		var personID uuid.UUID
		if err := rows.Scan(&personID, &p.Name, &p.GivenName, &p.FamilyName, &p.HonorificPrefix); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p.ID = id.PersonID(personID)
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

func (s *PostgresSource) GetPerson(ctx context.Context, personID id.PersonID) (models.Person, error) {
	var p models.Person
	var got uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, given_name, family_name, honorific_prefix
		FROM people
		WHERE id = $1`, uuid.UUID(personID)).
		Scan(&got, &p.Name, &p.GivenName, &p.FamilyName, &p.HonorificPrefix)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Person{}, sentinel.ErrNotFound
		}
		return models.Person{}, fmt.Errorf("get person: %w", err)
	}
	p.ID = id.PersonID(got)
	return p, nil
}

func (s *PostgresSource) MembershipsFor(ctx context.Context, personID id.PersonID) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.role, m.label, m.start_date, m.end_date,
		       o.id, o.name, o.classification,
		       COALESCE(array_agg(n.name) FILTER (WHERE n.name IS NOT NULL), '{}')
		FROM memberships m
		LEFT JOIN organizations o ON o.id = m.organization_id
		LEFT JOIN organization_other_names n ON n.organization_id = o.id
		WHERE m.person_id = $1
		GROUP BY m.id, o.id
		ORDER BY m.id`, uuid.UUID(personID))
	if err != nil {
		return nil, fmt.Errorf("memberships for %s: %w", personID, err)
	}
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		var (
			m          models.Membership
			orgID      sql.Null[uuid.UUID]
			orgName    sql.NullString
			orgClass   sql.NullString
			otherNames []string
		)
		err := rows.Scan(&m.Role, &m.Label, &m.StartDate, &m.EndDate,
			&orgID, &orgName, &orgClass, pq.Array(&otherNames))
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Person = personID
		if orgID.Valid {
			m.Organization = &models.Organization{
				ID:             id.OrganizationID(orgID.V),
				Name:           orgName.String,
				OtherNames:     otherNames,
				Classification: orgClass.String,
			}
		}
		memberships = append(memberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("memberships for %s: %w", personID, err)
	}
	return memberships, nil
}
