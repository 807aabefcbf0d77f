package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"namedex/internal/variant/models"
)

// MemoryStore is an in-memory variant index for tests and dev mode. It
// mimics the Postgres backend's contract: AND semantics over query tokens,
// hard date containment, deterministic relevance order (exact text match
// first, then fewest surplus tokens, then lexicographic).
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.NameVariant
}

// NewMemory creates an empty in-memory variant index.
func NewMemory() *MemoryStore {
	return &MemoryStore{rows: make(map[string]models.NameVariant)}
}

func (s *MemoryStore) Index(ctx context.Context, variants []models.NameVariant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range variants {
		s.rows[v.Key()] = v
	}
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[string]models.NameVariant)
	return nil
}

// Len reports the number of indexed rows.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

func (s *MemoryStore) Query(ctx context.Context, text string, asOf time.Time) ([]models.NameVariant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	queryTokens := Tokenize(text)
	if len(queryTokens) == 0 {
		return nil, nil
	}

	type scored struct {
		variant models.NameVariant
		exact   bool
		surplus int
	}

	s.mu.RLock()
	var matches []scored
	for _, v := range s.rows {
		if !v.Covers(asOf) {
			continue
		}
		variantTokens := Tokenize(v.Text)
		if !containsAll(variantTokens, queryTokens) {
			continue
		}
		matches = append(matches, scored{
			variant: v,
			exact:   strings.EqualFold(v.Text, text),
			surplus: len(variantTokens) - len(queryTokens),
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].exact != matches[j].exact {
			return matches[i].exact
		}
		if matches[i].surplus != matches[j].surplus {
			return matches[i].surplus < matches[j].surplus
		}
		return matches[i].variant.Text < matches[j].variant.Text
	})

	out := make([]models.NameVariant, len(matches))
	for i, m := range matches {
		out[i] = m.variant
	}
	return out, nil
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]struct{}, len(haystack))
	for _, t := range haystack {
		set[t] = struct{}{}
	}
	for _, n := range needles {
		if _, ok := set[n]; !ok {
			return false
		}
	}
	return true
}
