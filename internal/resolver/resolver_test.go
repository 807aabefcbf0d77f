package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	regmodels "namedex/internal/registry/models"
	regstore "namedex/internal/registry/store"
	"namedex/internal/variant/generator"
	"namedex/internal/variant/models"
	"namedex/internal/variant/store"
	"namedex/internal/variant/store/mocks"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
)

var testDate = time.Date(2010, time.November, 1, 0, 0, 0, 0, time.UTC)

// fixture seeds a registry source and a variant index the way a rebuild
// pass would: generate variants for every person, then index them.
type fixture struct {
	source *regstore.MemorySource
	store  *store.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{source: regstore.NewMemory(), store: store.NewMemory()}
}

func (f *fixture) addPerson(t *testing.T, p regmodels.Person, memberships ...regmodels.Membership) regmodels.Person {
	t.Helper()
	if p.ID.IsNil() {
		p.ID = id.PersonID(uuid.New())
	}
	f.source.AddPerson(p)
	for i := range memberships {
		memberships[i].Person = p.ID
		f.source.AddMembership(memberships[i])
	}
	variants := generator.Generate(p, memberships)
	require.NoError(t, f.store.Index(context.Background(), variants))
	return p
}

func (f *fixture) resolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(testDate, f.store, f.source, opts...)
	require.NoError(t, err)
	return r
}

type minTokensFilter struct{ min int }

func (f minTokensFilter) Allows(p regmodels.Person) bool {
	return len(strings.Fields(p.Name)) > f.min
}

func TestNew_RequiresDate(t *testing.T) {
	f := newFixture(t)
	_, err := New(time.Time{}, f.store, f.source)
	require.Error(t, err)
}

func TestResolve_RoundTrip(t *testing.T) {
	f := newFixture(t)
	mandela := f.addPerson(t, regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"})

	got, err := f.resolver(t).Resolve(context.Background(), "Nelson Mandela", "")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)
}

func TestResolve_Initials(t *testing.T) {
	f := newFixture(t)
	johnQ := f.addPerson(t, regmodels.Person{Name: "John Quentin Smith"})
	f.addPerson(t, regmodels.Person{Name: "John Smith"})

	got, err := f.resolver(t).Resolve(context.Background(), "J Q Smith", "")
	require.NoError(t, err)
	assert.Equal(t, johnQ.ID, got.ID)
}

func TestResolve_FilterVeto(t *testing.T) {
	f := newFixture(t)
	johnQ := f.addPerson(t, regmodels.Person{Name: "John Quentin Smith"})
	f.addPerson(t, regmodels.Person{Name: "John Smith"})

	r := f.resolver(t, WithFilter(minTokensFilter{min: 2}))
	got, err := r.Resolve(context.Background(), "John Smith", "")
	require.NoError(t, err)
	assert.Equal(t, johnQ.ID, got.ID, "rejected shorter-named person must be skipped")
}

func TestResolve_PartyHint(t *testing.T) {
	f := newFixture(t)
	anc := &regmodels.Organization{
		ID:             id.OrganizationID(uuid.New()),
		Name:           "African National Congress (ANC)",
		Classification: "party",
	}
	mandela := f.addPerson(t,
		regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"},
		regmodels.Membership{Organization: anc})

	got, err := f.resolver(t).Resolve(context.Background(), "N Mandela", "ANC")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)
}

func TestResolve_ParenContentWinsOverFullName(t *testing.T) {
	f := newFixture(t)
	assembly := &regmodels.Organization{
		ID:             id.OrganizationID(uuid.New()),
		Name:           "National Assembly",
		Classification: "legislature",
	}
	whip := f.addPerson(t,
		regmodels.Person{Name: "Thandi Modise"},
		regmodels.Membership{Organization: assembly, Role: "Chief Whip"})
	f.addPerson(t, regmodels.Person{Name: "John Smith"})

	// The bare name matches John Smith, but the parenthetical qualifier
	// identifies the whip and is tried first.
	got, err := f.resolver(t).Resolve(context.Background(), "John Smith (Chief Whip National Assembly)", "")
	require.NoError(t, err)
	assert.Equal(t, whip.ID, got.ID)
}

func TestResolve_TemporalBound(t *testing.T) {
	f := newFixture(t)
	anc := &regmodels.Organization{
		ID:             id.OrganizationID(uuid.New()),
		Name:           "African National Congress (ANC)",
		Classification: "party",
	}
	mandela := f.addPerson(t,
		regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"},
		regmodels.Membership{Organization: anc, StartDate: "1994-05-10", EndDate: "1999-06-14"})

	insideWindow, err := New(time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC), f.store, f.source)
	require.NoError(t, err)
	got, err := insideWindow.Resolve(context.Background(), "Nelson Mandela (ANC)", "")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)

	// After the window the party variant must never come back.
	_, err = f.resolver(t).Resolve(context.Background(), "Nelson Mandela (ANC)", "")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestResolve_HonorificStripped(t *testing.T) {
	f := newFixture(t)
	mandela := f.addPerson(t, regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"})

	got, err := f.resolver(t).Resolve(context.Background(), "Moruti Nelson Mandela", "")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)
}

func TestResolve_QualifierWordFilter(t *testing.T) {
	f := newFixture(t)
	assembly := &regmodels.Organization{
		ID:             id.OrganizationID(uuid.New()),
		Name:           "National Assembly",
		Classification: "legislature",
	}
	deputy := f.addPerson(t,
		regmodels.Person{Name: "Bulelani Magwanishe"},
		regmodels.Membership{Organization: assembly, Role: "Deputy Minister of Finance"})

	// Querying without "Deputy" must not surface the deputy's role variant.
	_, err := f.resolver(t).Resolve(context.Background(), "Minister of Finance National Assembly", "")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	// Asking for the deputy explicitly still works.
	got, err := f.resolver(t).Resolve(context.Background(), "Deputy Minister of Finance National Assembly", "")
	require.NoError(t, err)
	assert.Equal(t, deputy.ID, got.ID)
}

func TestResolve_NotFoundIsSentinel(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver(t).Resolve(context.Background(), "Nobody At All", "")
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestResolve_ShortCircuitsOnFirstAcceptedMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := regstore.NewMemory()
	mandela := source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New()), Name: "Nelson Mandela"})

	variants := mocks.NewMockStore(ctrl)
	match := models.NameVariant{
		Text:      "Nelson Mandela ANC",
		Person:    mandela.ID,
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}
	// Only the first candidate may be queried; a second Query call fails the
	// test because no expectation exists for it.
	variants.EXPECT().
		Query(gomock.Any(), "N Mandela ANC", testDate).
		Return([]models.NameVariant{match}, nil).
		Times(1)

	r, err := New(testDate, variants, source)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "N Mandela", "ANC")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)
}

func TestResolve_CacheSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := regstore.NewMemory()
	mandela := source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New()), Name: "Nelson Mandela"})

	variants := mocks.NewMockStore(ctrl)
	match := models.NameVariant{
		Text:      "Nelson Mandela",
		Person:    mandela.ID,
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}
	variants.EXPECT().
		Query(gomock.Any(), "Nelson Mandela", testDate).
		Return([]models.NameVariant{match}, nil).
		Times(1)

	r, err := New(testDate, variants, source)
	require.NoError(t, err)

	for range 3 {
		got, err := r.Resolve(context.Background(), "Nelson Mandela", "")
		require.NoError(t, err)
		assert.Equal(t, mandela.ID, got.ID)
	}
}

func TestResolve_TimeoutDegradesCandidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := regstore.NewMemory()
	mandela := source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New()), Name: "Nelson Mandela"})

	variants := mocks.NewMockStore(ctrl)
	match := models.NameVariant{
		Text:      "Nelson Mandela",
		Person:    mandela.ID,
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}
	gomock.InOrder(
		variants.EXPECT().
			Query(gomock.Any(), "Nelson Mandela ANC", testDate).
			Return(nil, fmt.Errorf("query variants: %w", context.DeadlineExceeded)),
		variants.EXPECT().
			Query(gomock.Any(), "Nelson Mandela", testDate).
			Return([]models.NameVariant{match}, nil),
	)

	r, err := New(testDate, variants, source)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "Nelson Mandela", "ANC")
	require.NoError(t, err)
	assert.Equal(t, mandela.ID, got.ID)
}

func TestResolve_BackendFailureIsUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	variants := mocks.NewMockStore(ctrl)
	variants.EXPECT().
		Query(gomock.Any(), gomock.Any(), testDate).
		Return(nil, fmt.Errorf("connection refused: %w", sentinel.ErrUnavailable))

	r, err := New(testDate, variants, regstore.NewMemory())
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), "Nelson Mandela", "")
	require.ErrorIs(t, err, sentinel.ErrUnavailable)
	require.NotErrorIs(t, err, sentinel.ErrNotFound)
}

func TestResolve_SkipsVariantForDeletedPerson(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := regstore.NewMemory()
	kept := source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New()), Name: "John Smith"})

	gone := models.NameVariant{
		Text:      "John Smith",
		Person:    id.PersonID(uuid.New()), // not in the registry
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}
	alive := models.NameVariant{
		Text:      "John Quentin Smith",
		Person:    kept.ID,
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}

	variants := mocks.NewMockStore(ctrl)
	variants.EXPECT().
		Query(gomock.Any(), "John Smith", testDate).
		Return([]models.NameVariant{gone, alive}, nil)

	r, err := New(testDate, variants, source)
	require.NoError(t, err)

	got, err := r.Resolve(context.Background(), "John Smith", "")
	require.NoError(t, err)
	assert.Equal(t, kept.ID, got.ID)
}

func TestCacheBound(t *testing.T) {
	cache, err := NewCache(2)
	require.NoError(t, err)

	f := newFixture(t)
	f.addPerson(t, regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"})
	f.addPerson(t, regmodels.Person{Name: "John Smith"})
	f.addPerson(t, regmodels.Person{Name: "Thandi Modise"})

	r := f.resolver(t, WithCache(cache))
	for _, name := range []string{"Nelson Mandela", "John Smith", "Thandi Modise"} {
		_, err := r.Resolve(context.Background(), name, "")
		require.NoError(t, err)
	}
	assert.Equal(t, 2, cache.Len())
}

func TestResolve_ConcurrentUse(t *testing.T) {
	f := newFixture(t)
	mandela := f.addPerson(t, regmodels.Person{Name: "Nelson Mandela", GivenName: "Nelson"})
	r := f.resolver(t)

	errs := make(chan error, 20)
	for range 20 {
		go func() {
			got, err := r.Resolve(context.Background(), "Nelson Mandela", "")
			if err == nil && got.ID != mandela.ID {
				err = errors.New("wrong person")
			}
			errs <- err
		}()
	}
	for range 20 {
		require.NoError(t, <-errs)
	}
}
