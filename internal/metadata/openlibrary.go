package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

const (
	openLibraryBaseURL  = "https://openlibrary.org"
	openLibraryCoverURL = "https://covers.openlibrary.org/b/id"

	searchFields = "key,title,author_name,first_publish_year,isbn,number_of_pages_median,cover_i"
)

// OpenLibraryClient fetches book metadata from the Open Library search API.
// It is the fallback catalog provider.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	since := time.Since(r.lastCall)
	if since < r.interval {
		time.Sleep(r.interval - since)
	}
	r.lastCall = time.Now()
}

// NewOpenLibraryClient creates a new Open Library API client with rate
// limiting, as the API asks for at most one request per second. An empty
// baseURL selects the public API endpoint.
func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = openLibraryBaseURL
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: newRateLimiter(time.Second),
	}
}

func (c *OpenLibraryClient) Name() string {
	return "open-library"
}

// Search looks up works by title and optional author.
func (c *OpenLibraryClient) Search(ctx context.Context, title, author string, limit, offset int) ([]entities.Book, error) {
	query := title
	if author != "" {
		query += " author:" + author
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("fields", searchFields)

	return c.fetch(ctx, params)
}

// SearchByISBN looks up a single work by ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) ([]entities.Book, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	params.Set("limit", "1")
	params.Set("fields", searchFields)

	return c.fetch(ctx, params)
}

func (c *OpenLibraryClient) fetch(ctx context.Context, params url.Values) ([]entities.Book, error) {
	if c.rateLimiter != nil {
		c.rateLimiter.wait()
	}

	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result openLibrarySearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	books := make([]entities.Book, 0, len(result.Docs))
	for _, doc := range result.Docs {
		books = append(books, c.mapDoc(doc))
	}
	return books, nil
}

// mapDoc translates an Open Library search doc into the canonical Book
// shape. The search endpoint carries neither dimensions nor descriptions.
func (c *OpenLibraryClient) mapDoc(doc openLibrarySearchDoc) entities.Book {
	isbn := extractOpenLibraryISBN(doc.ISBN)
	if isbn == "" {
		isbn = "OPENLIBRARY-" + doc.Key
	}

	var cover *string
	if doc.CoverI != 0 {
		coverURL := fmt.Sprintf("%s/%d-L.jpg", openLibraryCoverURL, doc.CoverI)
		cover = &coverURL
	}

	var year *int
	if doc.FirstPublishYear != 0 {
		year = &doc.FirstPublishYear
	}

	return entities.Book{
		ISBN:            isbn,
		Title:           doc.Title,
		Author:          joinAuthors(doc.AuthorName),
		PublicationYear: year,
		PageCount:       intPtr(doc.NumberOfPagesMedian),
		CoverImageURL:   cover,
		OpenLibraryKey:  strPtr(doc.Key),
		Source:          entities.SourceOpenLibrary,
		AddedAt:         time.Now(),
	}
}

// extractOpenLibraryISBN prefers ISBN-13 (978/979 prefix) over whatever
// comes first in the doc's ISBN list.
func extractOpenLibraryISBN(isbns []string) string {
	for _, isbn := range isbns {
		if strings.HasPrefix(isbn, "978") || strings.HasPrefix(isbn, "979") {
			return isbn
		}
	}
	if len(isbns) > 0 {
		return isbns[0]
	}
	return ""
}

// Open Library API response types (internal)

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	ISBN                []string `json:"isbn"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
	CoverI              int      `json:"cover_i"`
}
