package resolver

import (
	"log/slog"
	"time"

	regstore "namedex/internal/registry/store"
	"namedex/internal/resolver/metrics"
	"namedex/internal/variant/store"
)

// Factory builds resolvers for arbitrary as-of dates over one shared store,
// directory, and cache. Each HTTP request names its own date, but the cache
// (keyed by date) and the backends are process-wide.
type Factory struct {
	store     store.Store
	directory regstore.PersonDirectory
	cache     *Cache
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewFactory constructs a resolver factory with a shared cache of the given
// size.
func NewFactory(variants store.Store, directory regstore.PersonDirectory, cacheSize int, logger *slog.Logger, m *metrics.Metrics) (*Factory, error) {
	cache, err := NewCache(cacheSize)
	if err != nil {
		return nil, err
	}
	return &Factory{
		store:     variants,
		directory: directory,
		cache:     cache,
		logger:    logger,
		metrics:   m,
	}, nil
}

// ForDate returns a resolver fixed to the given as-of date.
func (f *Factory) ForDate(asOf time.Time, opts ...Option) (*Resolver, error) {
	base := []Option{
		WithCache(f.cache),
		WithLogger(f.logger),
		WithMetrics(f.metrics),
	}
	return New(asOf, f.store, f.directory, append(base, opts...)...)
}
