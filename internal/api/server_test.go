package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsweave/internal/domain"
	"newsweave/internal/infrastructure/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *storage.ArticleStore, *storage.DigestStore) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	articles := storage.NewArticleStore(db)
	digests := storage.NewDigestStore(db)
	return NewServer(articles, digests, nil).Router(), articles, digests
}

func seedArticle(t *testing.T, store *storage.ArticleStore, category string, serial int, title string) domain.Article {
	t.Helper()
	a := domain.Article{
		ID:           fmt.Sprintf("%s-%03d", category, serial),
		SerialNumber: serial,
		Title:        title,
		Summary:      "summary",
		Link:         "https://example.org",
		Image:        "https://example.org/i.jpg",
		Category:     category,
		Source:       "Test Source",
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, store.Insert(context.Background(), a))
	return a
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCategoriesEndpoint(t *testing.T) {
	router, articles, _ := newTestRouter(t)
	seedArticle(t, articles, "Sports", 1, "Cup final preview")
	seedArticle(t, articles, "Business", 1, "Budget 2025 Unveiled")

	rec := doGET(t, router, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Business", "Sports"}, got)
}

func TestCategoriesEndpointEmptyStore(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doGET(t, router, "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestTopArticlesEndpoint(t *testing.T) {
	router, articles, _ := newTestRouter(t)
	for serial := 1; serial <= 3; serial++ {
		seedArticle(t, articles, "Business", serial, fmt.Sprintf("Business story %d", serial))
	}
	seedArticle(t, articles, "Sports", 1, "Cup final preview")

	rec := doGET(t, router, "/api/top-articles")
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string][]domain.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got["Business"], 3)
	assert.Equal(t, 3, got["Business"][0].SerialNumber, "newest first")
	require.Len(t, got["Sports"], 1)
}

func TestArticleEndpoint(t *testing.T) {
	router, articles, _ := newTestRouter(t)
	want := seedArticle(t, articles, "Business", 7, "Budget 2025 Unveiled")

	rec := doGET(t, router, "/api/article/Business/7")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)

	rec = doGET(t, router, "/api/article/Business/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doGET(t, router, "/api/article/Business/notanumber")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpoint(t *testing.T) {
	router, articles, _ := newTestRouter(t)
	seedArticle(t, articles, "Business", 1, "Budget 2025 Unveiled")
	seedArticle(t, articles, "Business", 2, "Markets rally as rate cut hopes grow")
	seedArticle(t, articles, "Sports", 1, "Cup final preview")

	rec := doGET(t, router, "/api/search?query=BUDGET")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Article
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Budget 2025 Unveiled", got[0].Title)

	rec = doGET(t, router, "/api/search?query=e&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)

	rec = doGET(t, router, "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeaturedEndpoints(t *testing.T) {
	router, articles, digests := newTestRouter(t)
	a1 := seedArticle(t, articles, "Business", 1, "Budget 2025 Unveiled")
	a2 := seedArticle(t, articles, "Business", 2, "Markets rally as rate cut hopes grow")

	record := domain.Digest{
		ID:                   "digest-1",
		Category:             "Business",
		Timestamp:            time.Now().UTC(),
		KeyInsights:          "Rates dominate [Article 1].",
		ComprehensiveSummary: "Monetary policy drove the cycle.",
		SerialNumbers:        []int{a2.SerialNumber, a1.SerialNumber},
		DayBucket:            time.Now().UTC().Format("2006-01-02"),
	}
	require.NoError(t, digests.Insert(context.Background(), record))

	rec := doGET(t, router, "/api/featured")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []domain.Digest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, "digest-1", all[0].ID)

	rec = doGET(t, router, "/api/featured/Business")
	require.Equal(t, http.StatusOK, rec.Code)
	var byCategory []domain.Digest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byCategory))
	require.Len(t, byCategory, 1)

	rec = doGET(t, router, "/api/featured/Ghost")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestFeaturedWithRelatedEndpoint(t *testing.T) {
	router, articles, digests := newTestRouter(t)
	a1 := seedArticle(t, articles, "Business", 1, "Budget 2025 Unveiled")
	a2 := seedArticle(t, articles, "Business", 2, "Markets rally as rate cut hopes grow")

	record := domain.Digest{
		ID:            "digest-1",
		Category:      "Business",
		Timestamp:     time.Now().UTC(),
		SerialNumbers: []int{a2.SerialNumber, a1.SerialNumber},
		DayBucket:     time.Now().UTC().Format("2006-01-02"),
	}
	require.NoError(t, digests.Insert(context.Background(), record))

	rec := doGET(t, router, "/api/featured-with-related/Business")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		FeaturedArticle *domain.Digest   `json:"featuredArticle"`
		RelatedArticles []domain.Article `json:"relatedArticles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.FeaturedArticle)
	assert.Equal(t, "digest-1", got.FeaturedArticle.ID)
	assert.Len(t, got.RelatedArticles, 2)
}

func TestFeaturedWithRelatedEmptyCategory(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doGET(t, router, "/api/featured-with-related/Ghost")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		FeaturedArticle *domain.Digest   `json:"featuredArticle"`
		RelatedArticles []domain.Article `json:"relatedArticles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Nil(t, got.FeaturedArticle)
	assert.Empty(t, got.RelatedArticles)
}

func TestCORSHeaders(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/categories", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
