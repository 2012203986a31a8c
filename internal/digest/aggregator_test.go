package digest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsweave/internal/domain"
	"newsweave/internal/infrastructure/storage"
	"newsweave/internal/ports"
)

type summarizeFunc func(ctx context.Context, prompt string) (string, error)

func (f summarizeFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

const wellFormedOutput = `Here is the analysis:
1. Rates dominate the news cycle [Article 1][Article 3].
2. The main topics covered were monetary policy and market reaction across the window.`

func newTestStores(t *testing.T) (*storage.ArticleStore, *storage.DigestStore) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewArticleStore(db), storage.NewDigestStore(db)
}

func seedArticles(t *testing.T, store *storage.ArticleStore, category string, count int) {
	t.Helper()
	ctx := context.Background()
	for serial := 1; serial <= count; serial++ {
		err := store.Insert(ctx, domain.Article{
			ID:           fmt.Sprintf("%s%03d", category[:2], serial),
			SerialNumber: serial,
			Title:        fmt.Sprintf("%s headline %d", category, serial),
			Summary:      "summary",
			Link:         "https://example.org",
			Image:        "https://example.org/i.jpg",
			Category:     category,
			Source:       "Test Source",
			CreatedAt:    time.Now().UTC(),
		})
		require.NoError(t, err)
	}
}

func newTestAggregator(articles *storage.ArticleStore, digests *storage.DigestStore, s ports.Summarizer) *Aggregator {
	return NewAggregator(AggregatorDeps{
		Articles:   articles,
		Digests:    digests,
		Summarizer: s,
		Location:   time.UTC,
		Window:     25,
	})
}

func TestBuildDigestCreatesOncePerDay(t *testing.T) {
	articles, digests := newTestStores(t)
	seedArticles(t, articles, "Business", 5)
	ctx := context.Background()

	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			return wellFormedOutput, nil
		}))

	first, err := agg.BuildDigest(ctx, "Business")
	require.NoError(t, err)
	require.True(t, first.Created)
	require.NotNil(t, first.Digest)
	assert.Equal(t, "Rates dominate the news cycle [Article 1][Article 3].", first.Digest.KeyInsights)
	assert.Contains(t, first.Digest.ComprehensiveSummary, "monetary policy")

	second, err := agg.BuildDigest(ctx, "Business")
	require.NoError(t, err)
	assert.False(t, second.Created, "same-day rebuild must be a skip")
	require.NotNil(t, second.Digest)
	assert.Equal(t, first.Digest.ID, second.Digest.ID)

	all, err := digests.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1, "digest cardinality unchanged by the second call")
}

func TestBuildDigestSerialNumbersMatchWindow(t *testing.T) {
	articles, digests := newTestStores(t)
	seedArticles(t, articles, "Business", 30)
	ctx := context.Background()

	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			return wellFormedOutput, nil
		}))

	outcome, err := agg.BuildDigest(ctx, "Business")
	require.NoError(t, err)
	require.True(t, outcome.Created)

	window, err := articles.TopArticles(ctx, "Business", 25)
	require.NoError(t, err)

	want := make([]int, 0, len(window))
	for _, a := range window {
		want = append(want, a.SerialNumber)
	}
	assert.Equal(t, want, outcome.Digest.SerialNumbers)
}

func TestBuildDigestPromptShape(t *testing.T) {
	articles, digests := newTestStores(t)
	seedArticles(t, articles, "Business", 3)
	ctx := context.Background()

	var captured string
	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			captured = prompt
			return wellFormedOutput, nil
		}))

	_, err := agg.BuildDigest(ctx, "Business")
	require.NoError(t, err)

	assert.Contains(t, captured, "[Article 1]")
	assert.Contains(t, captured, "[Article 3]")
	assert.Contains(t, captured, "Title: Business headline 3")
	assert.Contains(t, captured, "Summary: summary")
}

func TestBuildDigestUnstructuredOutput(t *testing.T) {
	articles, digests := newTestStores(t)
	seedArticles(t, articles, "Business", 3)
	ctx := context.Background()

	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			return "free-form prose without any numbered sections", nil
		}))

	outcome, err := agg.BuildDigest(ctx, "Business")
	require.NoError(t, err)
	require.True(t, outcome.Created, "unparseable output must not drop the digest")
	assert.Empty(t, outcome.Digest.KeyInsights)
	assert.Empty(t, outcome.Digest.ComprehensiveSummary)

	stored, err := digests.Latest(ctx, "Business")
	require.NoError(t, err)
	require.NotNil(t, stored, "record is persisted despite blank sections")
}

func TestBuildDigestEmptyCategory(t *testing.T) {
	articles, digests := newTestStores(t)
	ctx := context.Background()

	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			t.Fatal("summarizer must not be called for an empty category")
			return "", nil
		}))

	outcome, err := agg.BuildDigest(ctx, "Ghost")
	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Nil(t, outcome.Digest)
}

func TestRunIsolatesSummarizationFailures(t *testing.T) {
	articles, digests := newTestStores(t)
	seedArticles(t, articles, "Business", 3)
	seedArticles(t, articles, "Sports", 3)
	ctx := context.Background()

	agg := newTestAggregator(articles, digests, summarizeFunc(
		func(ctx context.Context, prompt string) (string, error) {
			if strings.Contains(prompt, "Business headline") {
				return "", fmt.Errorf("%w: upstream 500", ports.ErrSummarization)
			}
			return wellFormedOutput, nil
		}))

	err := agg.Run(ctx)
	require.NoError(t, err, "one category's failure must not abort the batch")

	businessDigest, err := digests.Latest(ctx, "Business")
	require.NoError(t, err)
	assert.Nil(t, businessDigest)

	sportsDigest, err := digests.Latest(ctx, "Sports")
	require.NoError(t, err)
	assert.NotNil(t, sportsDigest)
}

func TestParseSections(t *testing.T) {
	key, comprehensive := parseSections(wellFormedOutput)
	assert.Equal(t, "Rates dominate the news cycle [Article 1][Article 3].", key)
	assert.Contains(t, comprehensive, "monetary policy")

	key, comprehensive = parseSections("no markers here")
	assert.Empty(t, key)
	assert.Empty(t, comprehensive)

	key, comprehensive = parseSections("1. only insights present")
	assert.Equal(t, "only insights present", key)
	assert.Empty(t, comprehensive)
}
