package ports

import (
	"context"
	"time"

	"newsweave/internal/domain"
)

// ArticleStore owns the persisted article records. Insert is the only
// write; the store's unique (category, serialNumber) constraint is the
// serialization point for concurrent ingestion.
type ArticleStore interface {
	// FindByID returns the record for an identifier, or nil when absent.
	FindByID(ctx context.Context, id string) (*domain.Article, error)
	// FindBySerial returns the record at (category, serialNumber), or nil.
	FindBySerial(ctx context.Context, category string, serial int) (*domain.Article, error)
	// NextSerial reads the committed max serial number for the category
	// and returns max+1 (1 for an empty category).
	NextSerial(ctx context.Context, category string) (int, error)
	// Insert stores the record as-is. Returns ErrDuplicateKey when a
	// concurrent insert already claimed the same (category, serial).
	Insert(ctx context.Context, article domain.Article) error
	// TopArticles returns up to limit records for the category, newest
	// first by serial number.
	TopArticles(ctx context.Context, category string, limit int) ([]domain.Article, error)
	// BySerials returns the category's records whose serial numbers are
	// in the given set, newest first.
	BySerials(ctx context.Context, category string, serials []int) ([]domain.Article, error)
	// Search matches titles by case-insensitive substring, newest first.
	Search(ctx context.Context, titleSubstring string) ([]domain.Article, error)
	// Categories lists the distinct category labels present in the store.
	Categories(ctx context.Context) ([]string, error)
}

// DigestStore owns the persisted digest records. At most one digest may
// exist per (category, calendar day); the unique constraint on the day
// bucket enforces it.
type DigestStore interface {
	// FindByDay returns the digest for (category, dayBucket), or nil.
	FindByDay(ctx context.Context, category, dayBucket string) (*domain.Digest, error)
	// Insert stores the digest. Returns ErrDuplicateKey when a digest
	// for the same (category, dayBucket) already exists.
	Insert(ctx context.Context, digest domain.Digest) error
	// Latest returns the most recent digest for the category, or nil.
	Latest(ctx context.Context, category string) (*domain.Digest, error)
	// ListByCategory returns the category's digests, newest first.
	ListByCategory(ctx context.Context, category string) ([]domain.Digest, error)
	// ListAll returns every digest, newest first.
	ListAll(ctx context.Context) ([]domain.Digest, error)
}

// Summarizer is the narrow contract over the external AI collaborator.
type Summarizer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SeenCache is an optional fast path in front of ArticleStore.FindByID.
// A miss is never authoritative; implementations may drop writes.
type SeenCache interface {
	Lookup(ctx context.Context, id string) (serial int, ok bool)
	Store(ctx context.Context, id string, serial int)
}

// Scheduler controls when recurring jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
