package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsweave/internal/domain"
	"newsweave/internal/ports"
)

var articleColumns = []string{
	"id", "serial_number", "title", "summary", "link", "image",
	"category", "source", "created_at",
}

// ArticleStore implements ports.ArticleStore over SQL.
type ArticleStore struct {
	db      *DB
	timeout time.Duration
}

var _ ports.ArticleStore = (*ArticleStore)(nil)

// NewArticleStore wires the shared connection.
func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db, timeout: defaultQueryTimeout}
}

// FindByID returns the record for an identifier, or nil when absent.
// Identifiers are not unique by constraint; the oldest row wins, matching
// first-insertion semantics.
func (s *ArticleStore) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		OrderBy("created_at ASC").
		Limit(1)

	return s.queryOne(ctx, query, "find article by id")
}

// FindBySerial returns the record at (category, serialNumber), or nil.
func (s *ArticleStore) FindBySerial(ctx context.Context, category string, serial int) (*domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"category": category, "serial_number": serial})

	return s.queryOne(ctx, query, "find article by serial")
}

// NextSerial reads the committed maximum for the category and returns the
// next free serial number. The value is only a candidate: a concurrent
// insert may claim it first, which Insert reports as ErrDuplicateKey.
func (s *ArticleStore) NextSerial(ctx context.Context, category string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select("COALESCE(MAX(serial_number), 0)").
		From("articles").
		Where(sq.Eq{"category": category})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build next serial query: %w", err)
	}

	var max int
	if err := s.db.conn.QueryRowContext(ctx, sqlStr, args...).Scan(&max); err != nil {
		return 0, unavailable("next serial", err)
	}

	return max + 1, nil
}

// Insert stores the record as-is. A failed insert never consumes a serial
// number; the caller re-derives it from committed state on retry.
func (s *ArticleStore) Insert(ctx context.Context, article domain.Article) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Insert("articles").
		Columns(articleColumns...).
		Values(
			article.ID,
			article.SerialNumber,
			article.Title,
			article.Summary,
			article.Link,
			article.Image,
			article.Category,
			article.Source,
			article.CreatedAt,
		)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.conn.ExecContext(ctx, sqlStr, args...); err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("insert article %s/%d: %w",
				article.Category, article.SerialNumber, ports.ErrDuplicateKey)
		}
		return unavailable("insert article", err)
	}

	return nil
}

// TopArticles returns up to limit records for the category, newest first
// by serial number.
func (s *ArticleStore) TopArticles(ctx context.Context, category string, limit int) ([]domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"category": category}).
		OrderBy("serial_number DESC").
		Limit(uint64(limit))

	return s.queryMany(ctx, query, "top articles")
}

// BySerials returns the category's records for the given serial set,
// newest first.
func (s *ArticleStore) BySerials(ctx context.Context, category string, serials []int) ([]domain.Article, error) {
	if len(serials) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"category": category, "serial_number": serials}).
		OrderBy("serial_number DESC")

	return s.queryMany(ctx, query, "articles by serials")
}

// Search matches titles by case-insensitive substring, newest first.
func (s *ArticleStore) Search(ctx context.Context, titleSubstring string) ([]domain.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pattern := "%" + strings.ToLower(titleSubstring) + "%"
	query := s.db.builder.
		Select(articleColumns...).
		From("articles").
		Where(sq.Expr("LOWER(title) LIKE ?", pattern)).
		OrderBy("created_at DESC", "serial_number DESC")

	return s.queryMany(ctx, query, "search articles")
}

// Categories lists the distinct category labels present in the store.
func (s *ArticleStore) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := s.db.builder.
		Select("DISTINCT category").
		From("articles").
		OrderBy("category ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build categories query: %w", err)
	}

	rows, err := s.db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable("list categories", err)
	}

	return categories, nil
}

func (s *ArticleStore) queryOne(ctx context.Context, query sq.SelectBuilder, op string) (*domain.Article, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	row := s.db.conn.QueryRowContext(ctx, sqlStr, args...)
	article, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	return article, nil
}

func (s *ArticleStore) queryMany(ctx context.Context, query sq.SelectBuilder, op string) ([]domain.Article, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	rows, err := s.db.conn.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return articles, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var a domain.Article
	err := row.Scan(
		&a.ID,
		&a.SerialNumber,
		&a.Title,
		&a.Summary,
		&a.Link,
		&a.Image,
		&a.Category,
		&a.Source,
		&a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ports.ErrUnavailable, err)
}
