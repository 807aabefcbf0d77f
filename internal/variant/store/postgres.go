package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"namedex/internal/variant/metrics"
	"namedex/internal/variant/models"
	id "namedex/pkg/domain"
	"namedex/pkg/platform/sentinel"
)

// indexBatchSize bounds the number of rows per INSERT during rebuild.
const indexBatchSize = 500

// PostgresStore backs the variant index with Postgres full-text search.
//
// The tsvector column uses the "simple" configuration: no stemming and no
// stopword removal, so single-letter initials like "J" and "Q" survive
// tokenization. plainto_tsquery gives AND semantics over query tokens;
// ranking prefers a case-insensitive exact text match, then ts_rank.
type PostgresStore struct {
	db           *sql.DB
	queryTimeout time.Duration
	metrics      *metrics.Metrics
}

// NewPostgres constructs a Postgres-backed variant index. queryTimeout
// bounds each Query call; zero disables the per-query deadline.
func NewPostgres(db *sql.DB, queryTimeout time.Duration, metrics *metrics.Metrics) *PostgresStore {
	return &PostgresStore{db: db, queryTimeout: queryTimeout, metrics: metrics}
}

// Schema is the variant index DDL. The table is a rebuildable cache, not a
// source of truth; dropping it loses nothing that a rebuild cannot restore.
const Schema = `
CREATE TABLE IF NOT EXISTS name_variants (
	id          BIGSERIAL PRIMARY KEY,
	text        TEXT NOT NULL CHECK (text <> ''),
	person_id   UUID NOT NULL,
	valid_from  DATE NOT NULL,
	valid_to    DATE NOT NULL,
	text_vector tsvector GENERATED ALWAYS AS (to_tsvector('simple', text)) STORED,
	UNIQUE (text, person_id, valid_from, valid_to),
	CHECK (valid_from <= valid_to)
);

CREATE INDEX IF NOT EXISTS name_variants_vector_idx
	ON name_variants USING GIN (text_vector);
CREATE INDEX IF NOT EXISTS name_variants_window_idx
	ON name_variants (valid_from, valid_to);
`

// EnsureSchema creates the variant index table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure variant schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Index(ctx context.Context, variants []models.NameVariant) error {
	for start := 0; start < len(variants); start += indexBatchSize {
		end := min(start+indexBatchSize, len(variants))
		if err := s.indexBatch(ctx, variants[start:end]); err != nil {
			return err
		}
	}
	s.metrics.AddVariantsIndexed(len(variants))
	return nil
}

func (s *PostgresStore) indexBatch(ctx context.Context, batch []models.NameVariant) error {
	if len(batch) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO name_variants (text, person_id, valid_from, valid_to) VALUES `)
	args := make([]any, 0, len(batch)*4)
	for i, v := range batch {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, v.Text, uuid.UUID(v.Person), v.ValidFrom, v.ValidTo)
	}
	sb.WriteString(` ON CONFLICT (text, person_id, valid_from, valid_to) DO NOTHING`)

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("index variants: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE name_variants`); err != nil {
		return fmt.Errorf("clear variants: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, text string, asOf time.Time) ([]models.NameVariant, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, person_id, valid_from, valid_to
		FROM name_variants
		WHERE text_vector @@ plainto_tsquery('simple', $1)
		  AND valid_from <= $2
		  AND valid_to >= $2
		ORDER BY (lower(text) = lower($1)) DESC,
		         ts_rank(text_vector, plainto_tsquery('simple', $1)) DESC,
		         text
		LIMIT 50`, text, asOf)
	if err != nil {
		return nil, s.queryErr(text, err)
	}
	defer rows.Close()

	var out []models.NameVariant
	for rows.Next() {
		var v models.NameVariant
		var personID uuid.UUID
		if err := rows.Scan(&v.Text, &personID, &v.ValidFrom, &v.ValidTo); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.Person = id.PersonID(personID)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryErr(text, err)
	}
	s.metrics.ObserveQueryDuration(time.Since(start).Seconds())
	return out, nil
}

// queryErr keeps deadline hits distinguishable from backend faults: the
// resolver degrades a timed-out candidate to zero results, while a hard
// failure aborts resolution as retryable infrastructure trouble.
func (s *PostgresStore) queryErr(text string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		s.metrics.IncQueryTimeouts()
		return fmt.Errorf("query variants %q: %w", text, err)
	}
	return fmt.Errorf("query variants %q: %w: %w", text, sentinel.ErrUnavailable, err)
}
