package models

import (
	"time"

	id "namedex/pkg/domain"
)

// Default validity bracket applied to variants that carry no
// membership-derived window.
var (
	DefaultValidFrom = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultValidTo   = time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// NameVariant is one candidate textual rendering of a person's name, valid
// over an inclusive date interval. Variants are derived data: the whole set
// is dropped and regenerated on every rebuild, and rows are never mutated.
//
// Duplicate text across different persons with overlapping intervals is
// expected; resolution ordering disambiguates.
type NameVariant struct {
	Text      string
	Person    id.PersonID
	ValidFrom time.Time
	ValidTo   time.Time
}

// Covers reports whether the as-of date falls inside the validity interval
// (inclusive on both ends).
func (v NameVariant) Covers(asOf time.Time) bool {
	return !asOf.Before(v.ValidFrom) && !asOf.After(v.ValidTo)
}

// Key is the identity tuple for get-or-create deduplication during indexing.
func (v NameVariant) Key() string {
	return v.Text + "\x00" + v.Person.String() + "\x00" +
		v.ValidFrom.Format(time.DateOnly) + "\x00" + v.ValidTo.Format(time.DateOnly)
}
