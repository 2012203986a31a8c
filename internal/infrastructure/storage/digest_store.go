package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsweave/internal/domain"
	"newsweave/internal/ports"
)

var digestColumns = []string{
	"id", "category", "day_bucket", "created_at",
	"key_insights", "comprehensive_summary", "serial_numbers",
}

// DigestStore implements ports.DigestStore over SQL. The unique
// (category, day_bucket) constraint is the authoritative per-day dedup
// guard; the aggregator's same-day pre-check is only an optimization.
type DigestStore struct {
	db      *DB
	timeout time.Duration
}

var _ ports.DigestStore = (*DigestStore)(nil)

// NewDigestStore wires the shared connection.
func NewDigestStore(db *DB) *DigestStore {
	return &DigestStore{db: db, timeout: defaultQueryTimeout}
}

// FindByDay returns the digest for (category, dayBucket), or nil.
func (s *DigestStore) FindByDay(ctx context.Context, category, dayBucket string) (*domain.Digest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"category": category, "day_bucket": dayBucket})

	return s.queryOne(ctx, query, "find digest by day")
}

// Insert stores the digest. Returns ErrDuplicateKey when a digest for the
// same (category, dayBucket) already exists.
func (s *DigestStore) Insert(ctx context.Context, digest domain.Digest) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	serials, err := json.Marshal(digest.SerialNumbers)
	if err != nil {
		return fmt.Errorf("marshal serial numbers: %w", err)
	}

	query := s.db.builder.
		Insert("digests").
		Columns(digestColumns...).
		Values(
			digest.ID,
			digest.Category,
			digest.DayBucket,
			digest.Timestamp,
			digest.KeyInsights,
			digest.ComprehensiveSummary,
			string(serials),
		)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build digest insert: %w", err)
	}

	if _, err := s.db.conn.ExecContext(ctx, sqlStr, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert digest %s/%s: %w",
				digest.Category, digest.DayBucket, ports.ErrDuplicateKey)
		}
		return unavailable("insert digest", err)
	}

	return nil
}

// Latest returns the most recent digest for the category, or nil.
func (s *DigestStore) Latest(ctx context.Context, category string) (*domain.Digest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"category": category}).
		OrderBy("created_at DESC").
		Limit(1)

	return s.queryOne(ctx, query, "latest digest")
}

// ListByCategory returns the category's digests, newest first.
func (s *DigestStore) ListByCategory(ctx context.Context, category string) ([]domain.Digest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(digestColumns...).
		From("digests").
		Where(sq.Eq{"category": category}).
		OrderBy("created_at DESC")

	return s.queryMany(ctx, query, "digests by category")
}

// ListAll returns every digest, newest first.
func (s *DigestStore) ListAll(ctx context.Context) ([]domain.Digest, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(digestColumns...).
		From("digests").
		OrderBy("created_at DESC")

	return s.queryMany(ctx, query, "all digests")
}

func (s *DigestStore) queryOne(ctx context.Context, query sq.SelectBuilder, op string) (*domain.Digest, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	row := s.db.conn.QueryRowContext(ctx, sqlStr, args...)
	digest, err := scanDigest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	return digest, nil
}

func (s *DigestStore) queryMany(ctx context.Context, query sq.SelectBuilder, op string) ([]domain.Digest, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	rows, err := s.db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var digests []domain.Digest
	for rows.Next() {
		digest, err := scanDigest(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		digests = append(digests, *digest)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return digests, nil
}

func scanDigest(row rowScanner) (*domain.Digest, error) {
	var d domain.Digest
	var serials string
	err := row.Scan(
		&d.ID,
		&d.Category,
		&d.DayBucket,
		&d.Timestamp,
		&d.KeyInsights,
		&d.ComprehensiveSummary,
		&serials,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(serials), &d.SerialNumbers); err != nil {
		return nil, fmt.Errorf("decode serial numbers: %w", err)
	}

	return &d, nil
}
