package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/database"
)

type HealthResponse struct {
	Status        string            `json:"status"`
	Time          string            `json:"time"`
	Version       string            `json:"version,omitempty"`
	SchemaVersion int               `json:"schemaVersion"`
	Checks        map[string]string `json:"checks"`
}

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{
		db:      db,
		version: version,
	}
}

// Status reports liveness. The database check counts rows across all tables,
// so it fails on anything from a closed connection to a missing table, not
// just a dead socket.
func (h *HealthController) Status(c *gin.Context) {
	checks := make(map[string]string)
	status := "healthy"

	switch {
	case h.db == nil:
		checks["database"] = "not configured"
	default:
		counts, err := h.db.GetStats()
		if err != nil {
			checks["database"] = "error: " + err.Error()
			status = "unhealthy"
		} else {
			checks["database"] = fmt.Sprintf("ok (%d books, %d entries, %d notes)",
				counts.Books, counts.Entries, counts.Notes)
		}
	}

	health := HealthResponse{
		Status:        status,
		Time:          time.Now().Format(time.RFC3339),
		Version:       h.version,
		SchemaVersion: database.SchemaVersion,
		Checks:        checks,
	}

	statusCode := http.StatusOK
	if status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
