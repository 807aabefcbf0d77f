// Package rebuild drives full regeneration of the variant index: clear
// everything, walk every person in the registry, generate and index their
// variants. Rebuilds are idempotent and the index is a pure cache, so a lost
// or corrupt index is always recoverable by running another pass.
package rebuild

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"namedex/internal/rebuild/metrics"
	regstore "namedex/internal/registry/store"
	"namedex/internal/variant/generator"
	"namedex/internal/variant/store"
)

// defaultProgressEvery controls how often the pass logs a progress counter.
const defaultProgressEvery = 500

// Stats summarizes one rebuild pass.
type Stats struct {
	People   int           `json:"people"`
	Skipped  int           `json:"skipped"`
	Variants int           `json:"variants"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Service runs rebuild passes. One pass at a time: the locker rejects
// overlap across processes, the singleflight group collapses concurrent
// triggers inside this one.
type Service struct {
	source        regstore.PersonSource
	variants      store.Store
	locker        Locker
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	progressEvery int
	group         singleflight.Group
}

// New constructs a rebuild service.
func New(source regstore.PersonSource, variants store.Store, locker Locker, logger *slog.Logger, m *metrics.Metrics) *Service {
	if locker == nil {
		locker = NewMutexLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		source:        source,
		variants:      variants,
		locker:        locker,
		logger:        logger,
		metrics:       m,
		tracer:        otel.Tracer("namedex/rebuild"),
		progressEvery: defaultProgressEvery,
	}
}

// Rebuild clears and regenerates the whole variant index. Returns
// sentinel.ErrConflict when another pass holds the lock.
func (s *Service) Rebuild(ctx context.Context) (Stats, error) {
	release, err := s.locker.Acquire(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release rebuild lock", "error", err)
		}
	}()

	ctx, span := s.tracer.Start(ctx, "rebuild.Rebuild")
	defer span.End()

	s.metrics.SetInProgress(true)
	defer s.metrics.SetInProgress(false)

	stats, err := s.run(ctx)
	if err != nil {
		s.metrics.IncFailures()
		return Stats{}, err
	}

	span.SetAttributes(
		attribute.Int("people", stats.People),
		attribute.Int("variants", stats.Variants),
	)
	s.metrics.ObserveDuration(stats.Elapsed.Seconds())
	s.metrics.SetTotals(stats.People, stats.Variants)
	return stats, nil
}

// RebuildShared is Rebuild behind a singleflight group: a burst of triggers
// (e.g. a batch of registry-change events) shares one pass and its result.
func (s *Service) RebuildShared(ctx context.Context) (Stats, error) {
	v, err, _ := s.group.Do("rebuild", func() (any, error) {
		return s.Rebuild(ctx)
	})
	if err != nil {
		return Stats{}, err
	}
	return v.(Stats), nil
}

func (s *Service) run(ctx context.Context) (Stats, error) {
	start := time.Now()

	total, err := s.source.CountPeople(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("rebuild: %w", err)
	}
	s.logger.InfoContext(ctx, "starting index rebuild", "people", total)

	if err := s.variants.Clear(ctx); err != nil {
		return Stats{}, fmt.Errorf("rebuild: %w", err)
	}

	people, err := s.source.ListPeople(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("rebuild: %w", err)
	}

	var stats Stats
	for _, person := range people {
		if err := ctx.Err(); err != nil {
			return Stats{}, fmt.Errorf("rebuild canceled: %w", err)
		}

		memberships, err := s.source.MembershipsFor(ctx, person.ID)
		if err != nil {
			return Stats{}, fmt.Errorf("rebuild person %s: %w", person.ID, err)
		}

		variants := generator.Generate(person, memberships)
		if len(variants) == 0 {
			// Nameless records produce nothing; that is expected data, not
			// an error.
			stats.Skipped++
			continue
		}
		if err := s.variants.Index(ctx, variants); err != nil {
			return Stats{}, fmt.Errorf("rebuild person %s: %w", person.ID, err)
		}

		stats.People++
		stats.Variants += len(variants)
		if s.progressEvery > 0 && stats.People%s.progressEvery == 0 {
			s.logger.InfoContext(ctx, "rebuild progress",
				"done", stats.People,
				"total", total,
				"variants", stats.Variants,
			)
		}
	}

	stats.Elapsed = time.Since(start)
	s.logger.InfoContext(ctx, "index rebuild complete",
		"people", stats.People,
		"skipped", stats.Skipped,
		"variants", stats.Variants,
		"elapsed", stats.Elapsed.String(),
	)
	return stats, nil
}
