package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/entities"
	"github.com/ncnbooks/bookshelf/internal/readinglog"
)

// LibraryController exposes the book library: adding and removing books and
// tracking reading progress on their entries.
type LibraryController struct {
	service *readinglog.Service
}

func NewLibraryController(service *readinglog.Service) *LibraryController {
	return &LibraryController{service: service}
}

// AddBook adds a book and its initial reading entry.
// POST /api/library
func (lc *LibraryController) AddBook(c *gin.Context) {
	var book entities.Book
	if err := c.ShouldBindJSON(&book); err != nil {
		respondBadRequest(c, "invalid book payload: "+err.Error())
		return
	}

	book.ISBN = strings.TrimSpace(book.ISBN)
	book.Title = strings.TrimSpace(book.Title)
	if book.ISBN == "" {
		respondBadRequest(c, "isbn is required")
		return
	}
	if book.Title == "" {
		respondBadRequest(c, "title is required")
		return
	}

	result, err := lc.service.AddBook(&book)
	if err != nil {
		respondServiceError(c, err, "add book")
		return
	}
	respondCreated(c, result)
}

// GetLibrary lists all books with their reading entries, most recently
// updated first. An optional status query parameter filters by reading
// status.
// GET /api/library
func (lc *LibraryController) GetLibrary(c *gin.Context) {
	statusParam := c.Query("status")

	var (
		list []readinglog.BookWithEntry
		err  error
	)
	if statusParam != "" {
		status := entities.ReadingStatus(statusParam)
		if !status.Valid() {
			respondBadRequest(c, "unknown status: "+statusParam)
			return
		}
		list, err = lc.service.GetBooksByStatus(status)
	} else {
		list, err = lc.service.GetAllBooksWithEntries()
	}
	if err != nil {
		respondInternalError(c, err, "list library")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"books": list, "count": len(list)})
}

// GetBook returns a single book with its reading entry.
// GET /api/library/:isbn
func (lc *LibraryController) GetBook(c *gin.Context) {
	isbn := c.Param("isbn")

	book, err := lc.service.GetBookWithEntry(isbn)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.IndentedJSON(http.StatusOK, book)
}

// DeleteBook removes a book together with its reading entry and notes.
// DELETE /api/library/:isbn
func (lc *LibraryController) DeleteBook(c *gin.Context) {
	isbn := c.Param("isbn")

	if err := lc.service.DeleteBook(isbn); err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}

type updateStatusRequest struct {
	Status entities.ReadingStatus `json:"status"`
}

// UpdateStatus moves a reading entry to a new status.
// PATCH /api/entries/:id/status
func (lc *LibraryController) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid status payload: "+err.Error())
		return
	}

	if err := lc.service.UpdateStatus(id, req.Status); err != nil {
		respondServiceError(c, err, "update status")
		return
	}
	respondSuccess(c, "status updated")
}

type updateProgressRequest struct {
	CurrentPage *int `json:"currentPage"`
}

// UpdateProgress records the current page on a reading entry. A null page
// clears it.
// PATCH /api/entries/:id/progress
func (lc *LibraryController) UpdateProgress(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid progress payload: "+err.Error())
		return
	}
	if req.CurrentPage != nil && *req.CurrentPage < 0 {
		respondBadRequest(c, "currentPage must not be negative")
		return
	}

	if err := lc.service.SetCurrentPage(id, req.CurrentPage); err != nil {
		respondServiceError(c, err, "update progress")
		return
	}
	respondSuccess(c, "progress updated")
}
