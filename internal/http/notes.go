package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/readinglog"
)

// NotesController manages notes attached to reading entries.
type NotesController struct {
	service *readinglog.Service
}

func NewNotesController(service *readinglog.Service) *NotesController {
	return &NotesController{service: service}
}

type noteRequest struct {
	Content string `json:"content"`
}

// ListNotes returns all notes for a reading entry, oldest first.
// GET /api/entries/:id/notes
func (nc *NotesController) ListNotes(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	notes, err := nc.service.NotesForEntry(id)
	if err != nil {
		respondServiceError(c, err, "list notes")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"notes": notes, "count": len(notes)})
}

// AddNote attaches a note to a reading entry.
// POST /api/entries/:id/notes
func (nc *NotesController) AddNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid note payload: "+err.Error())
		return
	}

	note, err := nc.service.AddNote(id, req.Content)
	if err != nil {
		respondServiceError(c, err, "add note")
		return
	}
	respondCreated(c, note)
}

// UpdateNote replaces a note's content.
// PATCH /api/notes/:id
func (nc *NotesController) UpdateNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid note payload: "+err.Error())
		return
	}

	if err := nc.service.UpdateNote(id, req.Content); err != nil {
		respondServiceError(c, err, "update note")
		return
	}
	respondSuccess(c, "note updated")
}

// DeleteNote removes a note.
// DELETE /api/notes/:id
func (nc *NotesController) DeleteNote(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := nc.service.DeleteNote(id); err != nil {
		respondServiceError(c, err, "delete note")
		return
	}
	respondSuccess(c, "note deleted")
}
