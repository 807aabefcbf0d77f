package rebuild

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namedex/internal/platform/kafka/consumer"
	regmodels "namedex/internal/registry/models"
	regstore "namedex/internal/registry/store"
	"namedex/internal/resolver"
	"namedex/internal/variant/models"
	"namedex/internal/variant/store"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
)

func seedSource() *regstore.MemorySource {
	source := regstore.NewMemory()
	mandela := source.AddPerson(regmodels.Person{
		ID:        id.PersonID(uuid.New()),
		Name:      "Nelson Mandela",
		GivenName: "Nelson",
	})
	source.AddMembership(regmodels.Membership{
		Person: mandela.ID,
		Organization: &regmodels.Organization{
			ID:             id.OrganizationID(uuid.New()),
			Name:           "African National Congress (ANC)",
			Classification: "Party",
		},
	})
	source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New()), Name: "John Quentin Smith"})
	// Nameless record, must be skipped without error.
	source.AddPerson(regmodels.Person{ID: id.PersonID(uuid.New())})
	return source
}

func TestRebuild_PopulatesIndex(t *testing.T) {
	ctx := context.Background()
	source := seedSource()
	variants := store.NewMemory()
	svc := New(source, variants, nil, nil, nil)

	stats, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.People)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, stats.Variants, variants.Len())

	got, err := variants.Query(ctx, "Nelson Mandela (ANC)", time.Date(2010, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEmpty(t, got)
}

func TestRebuild_Idempotent(t *testing.T) {
	ctx := context.Background()
	source := seedSource()
	variants := store.NewMemory()
	svc := New(source, variants, nil, nil, nil)

	first, err := svc.Rebuild(ctx)
	require.NoError(t, err)
	second, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Variants, second.Variants)
	assert.Equal(t, second.Variants, variants.Len())

	// Resolution results are identical after a second pass.
	r, err := resolver.New(time.Date(2010, 11, 1, 0, 0, 0, 0, time.UTC), variants, source)
	require.NoError(t, err)
	person, err := r.Resolve(ctx, "J Q Smith", "")
	require.NoError(t, err)
	assert.Equal(t, "John Quentin Smith", person.Name)
}

func TestRebuild_ReplacesStaleRows(t *testing.T) {
	ctx := context.Background()
	source := seedSource()
	variants := store.NewMemory()
	require.NoError(t, variants.Index(ctx, []models.NameVariant{{
		Text:      "Stale Variant",
		Person:    id.PersonID(uuid.New()),
		ValidFrom: models.DefaultValidFrom,
		ValidTo:   models.DefaultValidTo,
	}}))

	svc := New(source, variants, nil, nil, nil)
	_, err := svc.Rebuild(ctx)
	require.NoError(t, err)

	got, err := variants.Query(ctx, "Stale Variant", time.Date(2010, 11, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRebuild_ConflictWhileLocked(t *testing.T) {
	ctx := context.Background()
	locker := NewMutexLocker()

	release, err := locker.Acquire(ctx)
	require.NoError(t, err)
	defer func() { _ = release(ctx) }()

	svc := New(seedSource(), store.NewMemory(), locker, nil, nil)
	_, err = svc.Rebuild(ctx)
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestRebuildShared_CollapsesConcurrentTriggers(t *testing.T) {
	ctx := context.Background()
	source := seedSource()

	var passes atomic.Int32
	variants := &countingStore{Store: store.NewMemory(), clears: &passes}
	svc := New(source, variants, nil, nil, nil)

	var wg sync.WaitGroup
	start := make(chan struct{})
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.RebuildShared(ctx)
			assert.NoError(t, err)
		}()
	}
	close(start)
	wg.Wait()

	assert.LessOrEqual(t, passes.Load(), int32(2), "burst of triggers must share passes")
}

// countingStore counts Clear calls (one per pass) and slows each pass down
// enough that a simultaneous burst of triggers overlaps the first pass.
type countingStore struct {
	store.Store
	clears *atomic.Int32
}

func (s *countingStore) Clear(ctx context.Context) error {
	s.clears.Add(1)
	time.Sleep(100 * time.Millisecond)
	return s.Store.Clear(ctx)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestChangeHandler_TriggersRebuild(t *testing.T) {
	ctx := context.Background()
	source := seedSource()
	variants := store.NewMemory()
	svc := New(source, variants, nil, nil, nil)
	h := NewChangeHandler(svc, discardLogger())

	err := h.Handle(ctx, &consumer.Message{Topic: "registry.changed", Key: []byte("person")})
	require.NoError(t, err)
	assert.Positive(t, variants.Len())
}

func TestChangeHandler_ConflictIsNotAnError(t *testing.T) {
	ctx := context.Background()
	locker := NewMutexLocker()
	release, err := locker.Acquire(ctx)
	require.NoError(t, err)
	defer func() { _ = release(ctx) }()

	svc := New(seedSource(), store.NewMemory(), locker, nil, nil)
	h := NewChangeHandler(svc, discardLogger())

	err = h.Handle(ctx, &consumer.Message{Topic: "registry.changed"})
	require.NoError(t, err, "a rebuild elsewhere covers the change")
}
