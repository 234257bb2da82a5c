// Package handlers implements HTTP request handlers for the Stremio addon.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamforge/resolver/internal/constants"
	"github.com/streamforge/resolver/internal/errors"
	"github.com/streamforge/resolver/internal/models"
	"github.com/streamforge/resolver/internal/services"
)

func (h *Handler) handleStream(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RequestTimeout)
	defer cancel()

	h.monitorTimeout(ctx, c.Param("id"))

	userConfig := h.parseUserConfiguration(c.Param("configuration"))
	apiKey := h.extractAPIKey(userConfig, "API_KEY_ALLDEBRID")

	if apiKey == "" {
		err := errors.NewAPIKeyMissingError("AllDebrid")
		h.services.Logger.Warnf("[StreamHandler] %v", err)
		c.JSON(http.StatusOK, models.StreamResponse{Streams: []models.Stream{}})
		return
	}

	h.configureTMDBService(userConfig)

	mediaType := c.Param("type")
	ud := &models.UserData{ExcludePrivateTrackers: h.resolverConfig().ExcludePrivateTrackers}

	orch := h.buildOrchestrator(apiKey)
	res := orch.Resolve(ctx, mediaType, c.Param("id"), ud)
	for _, err := range res.Errors {
		h.services.Logger.Errorf("[StreamHandler] request %s: %v", res.RequestID, err)
	}

	c.JSON(http.StatusOK, models.StreamResponse{Streams: streamsFromResult(res)})
}

func (h *Handler) monitorTimeout(ctx context.Context, id string) {
	go func() {
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			timeoutErr := errors.NewTimeoutError(fmt.Sprintf("request processing for ID: %s", id))
			h.services.Logger.Errorf("[StreamHandler] %v", timeoutErr)
		}
	}()
}

func (h *Handler) parseUserConfiguration(configuration string) map[string]interface{} {
	var userConfig map[string]interface{}
	if data, err := base64.StdEncoding.DecodeString(configuration); err == nil {
		json.Unmarshal(data, &userConfig)
	}
	return userConfig
}

func (h *Handler) extractAPIKey(userConfig map[string]interface{}, keyName string) string {
	if val, ok := userConfig[keyName]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}

	switch keyName {
	case "API_KEY_ALLDEBRID":
		if h.config != nil {
			return h.config.APIKeyAllDebrid
		}
	case "TMDB_API_KEY":
		if h.config != nil {
			return h.config.TMDBAPIKey
		}
	}

	return ""
}

func (h *Handler) configureTMDBService(userConfig map[string]interface{}) {
	tmdbAPIKey := h.extractAPIKey(userConfig, "TMDB_API_KEY")
	if tmdbAPIKey != "" && h.services.TMDB != nil {
		if tmdb, ok := h.services.TMDB.(*services.TMDB); ok {
			tmdb.SetAPIKey(tmdbAPIKey)
		}
	}
}
