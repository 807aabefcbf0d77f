// Package store holds the variant index: the denormalized collection of
// (text, person, validity-interval) rows that resolution searches. The index
// is derived data; it is cleared and repopulated wholesale on rebuild.
package store

//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"strings"
	"time"
	"unicode"

	"namedex/internal/variant/models"
)

// Store is the adapter contract over the search backend.
//
// Query ordering is backend-defined relevance order; date containment
// (valid_from <= asOf <= valid_to, inclusive) is a hard filter, never a
// ranking signal. Index has get-or-create semantics: identical
// (text, person, from, to) tuples collapse to one row. Implementations map
// backend failures to sentinel.ErrUnavailable; a deadline hit surfaces as
// the context error so callers can degrade instead of aborting.
type Store interface {
	Index(ctx context.Context, variants []models.NameVariant) error
	Clear(ctx context.Context) error
	Query(ctx context.Context, text string, asOf time.Time) ([]models.NameVariant, error)
}

// Tokenize lowercases and splits on any non-alphanumeric rune, so
// "N Mandela (ANC)" and "n mandela anc" produce the same tokens. Both the
// memory backend and tests use it; the Postgres backend gets the same
// behavior from the "simple" text-search configuration.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
