package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/backup"
)

// maxSnapshotBytes caps import uploads at 32 MiB.
const maxSnapshotBytes = 32 << 20

// BackupController serves full-library snapshot export and import.
type BackupController struct {
	service *backup.Service
}

func NewBackupController(service *backup.Service) *BackupController {
	return &BackupController{service: service}
}

// Export downloads a snapshot of the whole library as JSON.
// GET /api/backup/export
func (bc *BackupController) Export(c *gin.Context) {
	snap, err := bc.service.Export()
	if err != nil {
		respondInternalError(c, err, "export snapshot")
		return
	}

	filename := fmt.Sprintf("bookshelf-export-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.IndentedJSON(http.StatusOK, snap)
}

// Import applies an uploaded snapshot to the library. The strategy query
// parameter selects merge (default) or replace.
// POST /api/backup/import
func (bc *BackupController) Import(c *gin.Context) {
	strategy := backup.Strategy(c.DefaultQuery("strategy", string(backup.StrategyMerge)))

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes))
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}

	snap, err := backup.ParseSnapshot(body)
	if err != nil {
		if errors.Is(err, backup.ErrInvalidFormat) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "parse snapshot")
		return
	}

	result, err := bc.service.Import(snap, strategy)
	if err != nil {
		if errors.Is(err, backup.ErrUnknownStrategy) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "import snapshot")
		return
	}

	c.IndentedJSON(http.StatusOK, result)
}
