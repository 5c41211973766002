package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"imagedrop/api/internal/apierr"
)

// respondError maps a service error onto the JSON envelope. Typed errors keep
// their status and message; anything unexpected becomes a generic 500.
func (h HandlerSet) respondError(c *gin.Context, err error) {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{
			"success": false,
			"message": apiErr.Message,
		})
		return
	}

	h.log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Msg("request failed")

	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "internal server error",
	})
}

// publicURL builds a fully qualified retrieval URL from the current request,
// honoring a reverse proxy's forwarded scheme.
func publicURL(c *gin.Context, filename string) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/uploads/" + filename
}
