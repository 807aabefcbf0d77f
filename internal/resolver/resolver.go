// Package resolver maps free-text personal names to canonical persons. It is
// the read half of the variant-index contract: it tries an ordered sequence
// of rewrites of the input against the index and returns the first person
// that passes the caller's acceptance rules. Deterministic priority order
// and first-match-wins, never similarity scoring.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	regmodels "namedex/internal/registry/models"
	regstore "namedex/internal/registry/store"
	"namedex/internal/resolver/metrics"
	"namedex/internal/variant/store"
	"namedex/pkg/platform/sentinel"
)

// PersonFilter is a caller-supplied acceptance rule. A resolution only
// returns persons the filter allows; rejected matches are skipped, not
// errors.
type PersonFilter interface {
	Allows(p regmodels.Person) bool
}

// Resolver resolves names as of one fixed date. Construction fails without
// a date; everything else is optional. Safe for concurrent use.
type Resolver struct {
	asOf           time.Time
	store          store.Store
	directory      regstore.PersonDirectory
	filter         PersonFilter
	cache          *Cache
	qualifierWords []string
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithFilter installs a caller-supplied acceptance rule.
func WithFilter(f PersonFilter) Option {
	return func(r *Resolver) { r.filter = f }
}

// WithCache shares a resolution cache across resolvers. Without it the
// resolver owns a private cache of DefaultCacheSize.
func WithCache(c *Cache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithMetrics wires resolution metrics. Nil-safe when omitted.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

// WithQualifierWords replaces the distinguishing-qualifier word list used by
// the post-query filter. The default is just "Deputy": search backends have
// been seen to weight date proximity over the presence of that word, letting
// "Minister X" match "Deputy Minister X" variants.
func WithQualifierWords(words []string) Option {
	return func(r *Resolver) { r.qualifierWords = words }
}

// New constructs a Resolver for the given as-of date. The date is mandatory:
// every variant carries a validity interval and resolution is meaningless
// without a point in time to check it against.
func New(asOf time.Time, variants store.Store, directory regstore.PersonDirectory, opts ...Option) (*Resolver, error) {
	if asOf.IsZero() {
		return nil, fmt.Errorf("resolver: as-of date is required")
	}
	if variants == nil {
		return nil, fmt.Errorf("resolver: variant store is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("resolver: person directory is required")
	}

	r := &Resolver{
		asOf:           asOf,
		store:          variants,
		directory:      directory,
		qualifierWords: []string{"Deputy"},
		logger:         slog.Default(),
		tracer:         otel.Tracer("namedex/resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		cache, err := NewCache(DefaultCacheSize)
		if err != nil {
			return nil, fmt.Errorf("resolver: build cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Resolve maps name (plus an optional party hint) to a person.
//
// Candidate rewrites are tried strictly in priority order and evaluation
// stops at the first candidate that yields any accepted match; later
// candidates are never queried. A candidate whose query hits the store's
// deadline contributes zero results and resolution continues. Returns
// sentinel.ErrNotFound when every candidate is exhausted and
// sentinel.ErrUnavailable when the backend failed outright.
func (r *Resolver) Resolve(ctx context.Context, name, partyHint string) (regmodels.Person, error) {
	ctx, span := r.tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.String("name", name),
		attribute.String("party_hint", partyHint),
	))
	defer span.End()

	if person, ok := r.cache.get(name, partyHint, r.asOf); ok {
		r.metrics.IncCacheHits()
		return person, nil
	}

	for _, candidate := range candidates(name, partyHint) {
		person, found, err := r.tryCandidate(ctx, candidate)
		if err != nil {
			return regmodels.Person{}, err
		}
		if found {
			r.cache.put(name, partyHint, r.asOf, person)
			r.metrics.IncResolved()
			span.SetAttributes(attribute.String("person_id", person.ID.String()))
			return person, nil
		}
	}

	r.metrics.IncNotFound()
	return regmodels.Person{}, fmt.Errorf("resolve %q: %w", name, sentinel.ErrNotFound)
}

func (r *Resolver) tryCandidate(ctx context.Context, candidate string) (regmodels.Person, bool, error) {
	r.metrics.IncCandidateQueries()

	results, err := r.store.Query(ctx, candidate, r.asOf)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			// A slow backend degrades this candidate's precision, it does
			// not abort resolution.
			r.logger.WarnContext(ctx, "variant query timed out, skipping candidate",
				"candidate", candidate,
				"as_of", r.asOf.Format(time.DateOnly),
			)
			return regmodels.Person{}, false, nil
		}
		return regmodels.Person{}, false, fmt.Errorf("resolve candidate %q: %w", candidate, err)
	}

	for _, variant := range results {
		if r.hidesQualifier(candidate, variant.Text) {
			continue
		}
		person, err := r.directory.GetPerson(ctx, variant.Person)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Index row outlived its registry record, likely a rebuild
				// racing an upstream delete. Skip it.
				r.logger.WarnContext(ctx, "indexed variant references unknown person",
					"variant", variant.Text,
					"person_id", variant.Person,
				)
				continue
			}
			return regmodels.Person{}, false, fmt.Errorf("materialize person %s: %w", variant.Person, err)
		}
		if r.filter != nil && !r.filter.Allows(person) {
			continue
		}
		return person, true, nil
	}
	return regmodels.Person{}, false, nil
}

// hidesQualifier reports whether the matched variant carries a
// distinguishing qualifier word the candidate itself lacks. Guards against
// the backend ranking a "Deputy Minister" variant above a "Minister" one on
// date proximity alone.
func (r *Resolver) hidesQualifier(candidate, variantText string) bool {
	for _, word := range r.qualifierWords {
		if !strings.Contains(candidate, word) && strings.Contains(variantText, word) {
			return true
		}
	}
	return false
}
