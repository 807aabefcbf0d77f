//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"namedex/internal/registry/models"
	"namedex/internal/registry/store"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
	"namedex/pkg/testutil/containers"
)

type PostgresSourceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	source   *store.PostgresSource
}

func TestPostgresSourceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSourceSuite))
}

func (s *PostgresSourceSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.source = store.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.source.EnsureSchema(context.Background()))
}

func (s *PostgresSourceSuite) SetupTest() {
	_, err := s.postgres.DB.Exec(`TRUNCATE memberships, organization_other_names, organizations, people`)
	s.Require().NoError(err)
}

func (s *PostgresSourceSuite) seedPerson(p models.Person) {
	_, err := s.postgres.DB.Exec(`
		INSERT INTO people (id, name, given_name, family_name, honorific_prefix)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(p.ID), p.Name, p.GivenName, p.FamilyName, p.HonorificPrefix)
	s.Require().NoError(err)
}

func (s *PostgresSourceSuite) seedOrganization(o models.Organization) {
	_, err := s.postgres.DB.Exec(`
		INSERT INTO organizations (id, name, classification) VALUES ($1, $2, $3)`,
		uuid.UUID(o.ID), o.Name, o.Classification)
	s.Require().NoError(err)
	for _, name := range o.OtherNames {
		_, err := s.postgres.DB.Exec(`
			INSERT INTO organization_other_names (organization_id, name) VALUES ($1, $2)`,
			uuid.UUID(o.ID), name)
		s.Require().NoError(err)
	}
}

func (s *PostgresSourceSuite) seedMembership(person id.PersonID, org *id.OrganizationID, role, label, start, end string) {
	var orgID any
	if org != nil {
		orgID = uuid.UUID(*org)
	}
	_, err := s.postgres.DB.Exec(`
		INSERT INTO memberships (person_id, organization_id, role, label, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(person), orgID, role, label, start, end)
	s.Require().NoError(err)
}

func (s *PostgresSourceSuite) TestCountAndListPeople() {
	ctx := context.Background()

	count, err := s.source.CountPeople(ctx)
	s.Require().NoError(err)
	s.Zero(count)

	mandela := models.Person{
		ID:         id.PersonID(uuid.New()),
		Name:       "Nelson Mandela",
		GivenName:  "Nelson",
		FamilyName: "Mandela",
	}
	smith := models.Person{
		ID:        id.PersonID(uuid.New()),
		Name:      "John Quentin Smith",
		GivenName: "John Quentin",
	}
	s.seedPerson(mandela)
	s.seedPerson(smith)

	count, err = s.source.CountPeople(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	people, err := s.source.ListPeople(ctx)
	s.Require().NoError(err)
	s.Require().Len(people, 2)
	s.ElementsMatch([]models.Person{mandela, smith}, people)
}

func (s *PostgresSourceSuite) TestGetPerson() {
	ctx := context.Background()

	p := models.Person{
		ID:              id.PersonID(uuid.New()),
		Name:            "Nelson Mandela",
		HonorificPrefix: "Mr",
	}
	s.seedPerson(p)

	got, err := s.source.GetPerson(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p, got)

	_, err = s.source.GetPerson(ctx, id.PersonID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSourceSuite) TestMembershipsForResolvesOrganization() {
	ctx := context.Background()

	person := models.Person{ID: id.PersonID(uuid.New()), Name: "Nelson Mandela"}
	s.seedPerson(person)

	anc := models.Organization{
		ID:             id.OrganizationID(uuid.New()),
		Name:           "African National Congress",
		OtherNames:     []string{"ANC"},
		Classification: models.ClassificationParty,
	}
	s.seedOrganization(anc)

	s.seedMembership(person.ID, &anc.ID, "Member", "", "1994-05-10", "1999-06-14")
	s.seedMembership(person.ID, nil, "President", "President of South Africa", "1994-05", "")

	got, err := s.source.MembershipsFor(ctx, person.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal(person.ID, got[0].Person)
	s.Require().NotNil(got[0].Organization)
	s.Equal(anc.ID, got[0].Organization.ID)
	s.Equal("African National Congress", got[0].Organization.Name)
	s.Equal([]string{"ANC"}, got[0].Organization.OtherNames)
	s.Equal(models.ClassificationParty, got[0].Organization.Classification)
	s.Equal("1994-05-10", got[0].StartDate)
	s.Equal("1999-06-14", got[0].EndDate)

	// Memberships may reference no organization at all.
	s.Nil(got[1].Organization)
	s.Equal("President", got[1].Role)
	s.Equal("President of South Africa", got[1].Label)
}

func (s *PostgresSourceSuite) TestMembershipsForUnknownPerson() {
	got, err := s.source.MembershipsFor(context.Background(), id.PersonID(uuid.New()))
	s.Require().NoError(err)
	s.Empty(got)
}
