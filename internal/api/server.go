// Package api serves the read-only query surface over the article and
// digest stores.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"newsweave/internal/domain"
	"newsweave/internal/ports"
)

// Server exposes the stores to the front-end.
type Server struct {
	articles ports.ArticleStore
	digests  ports.DigestStore
	logger   *slog.Logger
}

// NewServer wires the stores.
func NewServer(articles ports.ArticleStore, digests ports.DigestStore, logger *slog.Logger) *Server {
	return &Server{articles: articles, digests: digests, logger: logger}
}

// Router constructs a Gin engine with registered routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	api := r.Group("/api")
	api.GET("/categories", s.handleCategories)
	api.GET("/top-articles", s.handleTopArticles)
	api.GET("/article/:category/:serialNumber", s.handleArticle)
	api.GET("/search", s.handleSearch)
	api.GET("/featured", s.handleAllFeatured)
	api.GET("/featured/:category", s.handleFeaturedByCategory)
	api.GET("/featured-with-related/:category", s.handleFeaturedWithRelated)

	return r
}

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.articles.Categories(c.Request.Context())
	if err != nil {
		s.fail(c, "fetch categories", err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categories)
}

// handleTopArticles returns the most recent window of every category,
// keyed by category name.
func (s *Server) handleTopArticles(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := s.articles.Categories(ctx)
	if err != nil {
		s.fail(c, "fetch categories", err)
		return
	}

	result := make(map[string][]domain.Article, len(categories))
	for _, category := range categories {
		articles, err := s.articles.TopArticles(ctx, category, 25)
		if err != nil {
			s.fail(c, "fetch top articles", err)
			return
		}
		result[category] = articles
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleArticle(c *gin.Context) {
	serial, err := strconv.Atoi(c.Param("serialNumber"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serialNumber must be an integer"})
		return
	}

	article, err := s.articles.FindBySerial(c.Request.Context(), c.Param("category"), serial)
	if err != nil {
		s.fail(c, "fetch article", err)
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, article)
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is required"})
		return
	}

	articles, err := s.articles.Search(c.Request.Context(), query)
	if err != nil {
		s.fail(c, "search articles", err)
		return
	}

	if limitParam := c.Query("limit"); limitParam != "" {
		if limit, err := strconv.Atoi(limitParam); err == nil && limit > 0 && limit < len(articles) {
			articles = articles[:limit]
		}
	}
	if articles == nil {
		articles = []domain.Article{}
	}

	c.JSON(http.StatusOK, articles)
}

func (s *Server) handleAllFeatured(c *gin.Context) {
	digests, err := s.digests.ListAll(c.Request.Context())
	if err != nil {
		s.fail(c, "fetch featured", err)
		return
	}
	if digests == nil {
		digests = []domain.Digest{}
	}
	c.JSON(http.StatusOK, digests)
}

func (s *Server) handleFeaturedByCategory(c *gin.Context) {
	digests, err := s.digests.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		s.fail(c, "fetch featured by category", err)
		return
	}
	if digests == nil {
		digests = []domain.Digest{}
	}
	c.JSON(http.StatusOK, digests)
}

// handleFeaturedWithRelated returns the category's newest digest together
// with the articles its serial numbers reference.
func (s *Server) handleFeaturedWithRelated(c *gin.Context) {
	ctx := c.Request.Context()
	category := c.Param("category")

	latest, err := s.digests.Latest(ctx, category)
	if err != nil {
		s.fail(c, "fetch latest featured", err)
		return
	}
	if latest == nil {
		c.JSON(http.StatusOK, gin.H{
			"featuredArticle": nil,
			"relatedArticles": []domain.Article{},
		})
		return
	}

	related, err := s.articles.BySerials(ctx, category, latest.SerialNumbers)
	if err != nil {
		s.fail(c, "fetch related articles", err)
		return
	}
	if related == nil {
		related = []domain.Article{}
	}

	c.JSON(http.StatusOK, gin.H{
		"featuredArticle": latest,
		"relatedArticles": related,
	})
}

func (s *Server) fail(c *gin.Context, op string, err error) {
	if s.logger != nil {
		s.logger.Error(op, "path", c.FullPath(), "error", err)
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + op})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}
