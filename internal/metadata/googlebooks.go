package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ncnbooks/bookshelf/internal/entities"
)

const googleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooksClient fetches book metadata from the Google Books volumes API.
// It is the primary catalog provider.
type GoogleBooksClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewGoogleBooksClient creates a new Google Books API client. An empty
// baseURL selects the public API endpoint.
func NewGoogleBooksClient(baseURL string) *GoogleBooksClient {
	if baseURL == "" {
		baseURL = googleBooksBaseURL
	}
	return &GoogleBooksClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
	}
}

func (c *GoogleBooksClient) Name() string {
	return "google-books"
}

// Search looks up volumes by title and optional author.
func (c *GoogleBooksClient) Search(ctx context.Context, title, author string, limit, offset int) ([]entities.Book, error) {
	query := title
	if author != "" {
		query += "+inauthor:" + author
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("startIndex", strconv.Itoa(offset))
	params.Set("projection", "full")

	return c.fetch(ctx, params)
}

// SearchByISBN looks up a single volume by ISBN.
func (c *GoogleBooksClient) SearchByISBN(ctx context.Context, isbn string) ([]entities.Book, error) {
	params := url.Values{}
	params.Set("q", "isbn:"+isbn)
	params.Set("maxResults", "1")
	params.Set("projection", "full")

	return c.fetch(ctx, params)
}

func (c *GoogleBooksClient) fetch(ctx context.Context, params url.Values) ([]entities.Book, error) {
	requestURL := fmt.Sprintf("%s/volumes?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch volumes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	books := make([]entities.Book, 0, len(result.Items))
	for _, item := range result.Items {
		books = append(books, c.mapVolume(item))
	}
	return books, nil
}

// mapVolume translates a Google Books volume into the canonical Book shape.
func (c *GoogleBooksClient) mapVolume(volume googleBooksVolume) entities.Book {
	info := volume.VolumeInfo

	isbn := extractGoogleISBN(info.IndustryIdentifiers)
	if isbn == "" {
		// The volume ID keeps the primary key populated when the catalog
		// has no ISBN for this edition.
		isbn = "GOOGLE-" + volume.ID
	}

	var dims *entities.Dimensions
	if info.Dimensions != nil {
		dims = &entities.Dimensions{
			Height:    parseDimension(info.Dimensions.Height),
			Width:     parseDimension(info.Dimensions.Width),
			Thickness: parseDimension(info.Dimensions.Thickness),
		}
	}

	var cover *string
	if info.ImageLinks != nil {
		// Prefer the larger variant.
		if info.ImageLinks.Thumbnail != "" {
			cover = &info.ImageLinks.Thumbnail
		} else if info.ImageLinks.SmallThumbnail != "" {
			cover = &info.ImageLinks.SmallThumbnail
		}
	}

	return entities.Book{
		ISBN:            isbn,
		Title:           info.Title,
		Author:          joinAuthors(info.Authors),
		PublicationYear: parseYear(info.PublishedDate),
		PageCount:       intPtr(info.PageCount),
		Dimensions:      dims,
		CoverImageURL:   cover,
		Description:     strPtr(info.Description),
		GoogleBooksID:   &volume.ID,
		Source:          entities.SourceGoogleBooks,
		AddedAt:         time.Now(),
	}
}

// extractGoogleISBN prefers ISBN-13 over ISBN-10 over the first available
// identifier.
func extractGoogleISBN(identifiers []industryIdentifier) string {
	for _, id := range identifiers {
		if id.Type == "ISBN_13" {
			return id.Identifier
		}
	}
	for _, id := range identifiers {
		if id.Type == "ISBN_10" {
			return id.Identifier
		}
	}
	if len(identifiers) > 0 {
		return identifiers[0].Identifier
	}
	return ""
}

// Google Books API response types (internal)

type googleBooksResponse struct {
	Kind       string              `json:"kind"`
	TotalItems int                 `json:"totalItems"`
	Items      []googleBooksVolume `json:"items"`
}

type googleBooksVolume struct {
	ID         string           `json:"id"`
	VolumeInfo googleVolumeInfo `json:"volumeInfo"`
}

type googleVolumeInfo struct {
	Title               string               `json:"title"`
	Authors             []string             `json:"authors"`
	PublishedDate       string               `json:"publishedDate"`
	Description         string               `json:"description"`
	IndustryIdentifiers []industryIdentifier `json:"industryIdentifiers"`
	PageCount           int                  `json:"pageCount"`
	Dimensions          *googleDimensions    `json:"dimensions"`
	ImageLinks          *googleImageLinks    `json:"imageLinks"`
}

type industryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

type googleDimensions struct {
	Height    string `json:"height"`
	Width     string `json:"width"`
	Thickness string `json:"thickness"`
}

type googleImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}
