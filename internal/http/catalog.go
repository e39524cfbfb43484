package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/metadata"
)

const (
	defaultMaxResults = 20
	maxMaxResults     = 40
)

// CatalogController exposes external catalog search. Provider failures are
// absorbed by the searcher, so these endpoints only fail when the client
// goes away or sends a bad request.
type CatalogController struct {
	searcher *metadata.Searcher
}

func NewCatalogController(searcher *metadata.Searcher) *CatalogController {
	return &CatalogController{searcher: searcher}
}

// Search queries the catalog providers by title and optional author.
// GET /api/catalog/search
func (cc *CatalogController) Search(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		respondBadRequest(c, "title query parameter is required")
		return
	}
	author := strings.TrimSpace(c.Query("author"))

	maxResults := parsePositiveQueryInt(c, "maxResults", defaultMaxResults)
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}
	startIndex := parsePositiveQueryInt(c, "startIndex", 0)

	books, err := cc.searcher.Search(c.Request.Context(), title, author, maxResults, startIndex)
	if err != nil {
		respondInternalError(c, err, "catalog search")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// SearchByISBN looks a single book up by its ISBN.
// GET /api/catalog/isbn/:isbn
func (cc *CatalogController) SearchByISBN(c *gin.Context) {
	isbn := strings.TrimSpace(c.Param("isbn"))
	if isbn == "" {
		respondBadRequest(c, "isbn is required")
		return
	}

	books, err := cc.searcher.SearchByISBN(c.Request.Context(), isbn)
	if err != nil {
		respondInternalError(c, err, "catalog isbn lookup")
		return
	}
	if len(books) == 0 {
		respondNotFound(c, "book")
		return
	}
	c.IndentedJSON(http.StatusOK, books[0])
}

// ClearCache drops all cached catalog results.
// POST /api/catalog/cache/clear
func (cc *CatalogController) ClearCache(c *gin.Context) {
	cc.searcher.ClearCache()
	respondSuccess(c, "catalog cache cleared")
}

func parsePositiveQueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
