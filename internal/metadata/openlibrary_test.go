package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

const openLibraryFixture = `{
	"numFound": 1,
	"docs": [
		{
			"key": "/works/OL45804W",
			"title": "Fantastic Mr Fox",
			"author_name": ["Roald Dahl"],
			"first_publish_year": 1970,
			"isbn": ["0140328726", "9780140328721"],
			"number_of_pages_median": 96,
			"cover_i": 6498519
		}
	]
}`

func newTestOpenLibraryClient(baseURL string) *OpenLibraryClient {
	client := NewOpenLibraryClient(baseURL)
	client.rateLimiter = newRateLimiter(time.Millisecond)
	return client
}

func TestOpenLibraryClient_Search(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search.json", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, searchFields, r.URL.Query().Get("fields"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openLibraryFixture))
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)
	books, err := client.Search(context.Background(), "Fantastic Mr Fox", "Dahl", 5, 0)

	require.NoError(t, err)
	assert.Equal(t, "Fantastic Mr Fox author:Dahl", gotQuery)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, "9780140328721", book.ISBN) // 978-prefixed entry preferred
	assert.Equal(t, "Fantastic Mr Fox", book.Title)
	assert.Equal(t, "Roald Dahl", book.Author)
	require.NotNil(t, book.PublicationYear)
	assert.Equal(t, 1970, *book.PublicationYear)
	require.NotNil(t, book.PageCount)
	assert.Equal(t, 96, *book.PageCount)
	require.NotNil(t, book.CoverImageURL)
	assert.Equal(t, "https://covers.openlibrary.org/b/id/6498519-L.jpg", *book.CoverImageURL)
	require.NotNil(t, book.OpenLibraryKey)
	assert.Equal(t, "/works/OL45804W", *book.OpenLibraryKey)
	assert.Equal(t, entities.SourceOpenLibrary, book.Source)
	assert.Nil(t, book.Dimensions)
	assert.Nil(t, book.Description)
}

func TestOpenLibraryClient_SearchByISBN(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "isbn:9780140328721", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openLibraryFixture))
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)
	books, err := client.SearchByISBN(context.Background(), "9780140328721")

	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "9780140328721", books[0].ISBN)
}

func TestOpenLibraryClient_MissingFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"numFound":1,"docs":[{"key":"/works/OL1W","title":"Bare"}]}`))
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)
	books, err := client.Search(context.Background(), "Bare", "", 5, 0)

	require.NoError(t, err)
	require.Len(t, books, 1)

	book := books[0]
	assert.Equal(t, "OPENLIBRARY-/works/OL1W", book.ISBN)
	assert.Equal(t, "Unknown Author", book.Author)
	assert.Nil(t, book.PublicationYear)
	assert.Nil(t, book.PageCount)
	assert.Nil(t, book.CoverImageURL)
}

func TestOpenLibraryClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestOpenLibraryClient(server.URL)
	_, err := client.Search(context.Background(), "anything", "", 5, 0)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestRateLimiter_SpacesCalls(t *testing.T) {
	limiter := newRateLimiter(50 * time.Millisecond)

	start := time.Now()
	limiter.wait()
	limiter.wait()
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
}
