package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncnbooks/bookshelf/internal/database/preferences"
	"github.com/ncnbooks/bookshelf/internal/entities"
)

// PreferencesController manages persisted UI preferences.
type PreferencesController struct {
	store *preferences.Repository
}

func NewPreferencesController(store *preferences.Repository) *PreferencesController {
	return &PreferencesController{store: store}
}

// ListPreferences returns every stored preference.
// GET /api/preferences
func (pc *PreferencesController) ListPreferences(c *gin.Context) {
	prefs, err := pc.store.GetAll()
	if err != nil {
		respondInternalError(c, err, "list preferences")
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"preferences": prefs, "count": len(prefs)})
}

// GetPreference returns one preference by key.
// GET /api/preferences/:key
func (pc *PreferencesController) GetPreference(c *gin.Context) {
	key := c.Param("key")

	pref, err := pc.store.Get(key)
	if err != nil {
		respondServiceError(c, err, "get preference")
		return
	}
	c.IndentedJSON(http.StatusOK, pref)
}

type setPreferenceRequest struct {
	Value json.RawMessage `json:"value"`
}

// SetPreference stores a preference value, creating or replacing it.
// PUT /api/preferences/:key
func (pc *PreferencesController) SetPreference(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		respondBadRequest(c, "preference key is required")
		return
	}

	var req setPreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid preference payload: "+err.Error())
		return
	}
	if len(req.Value) == 0 {
		respondBadRequest(c, "value is required")
		return
	}

	if err := pc.store.Set(key, entities.PreferenceValue(req.Value)); err != nil {
		respondInternalError(c, err, "set preference")
		return
	}
	respondSuccess(c, "preference saved")
}

// DeletePreference removes a preference.
// DELETE /api/preferences/:key
func (pc *PreferencesController) DeletePreference(c *gin.Context) {
	key := c.Param("key")

	if err := pc.store.Delete(key); err != nil {
		respondServiceError(c, err, "delete preference")
		return
	}
	respondSuccess(c, "preference deleted")
}
