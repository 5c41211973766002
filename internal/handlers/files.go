package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"imagedrop/api/internal/apierr"
	"imagedrop/api/internal/storage"
)

// ServeUpload streams raw file bytes from the storage backend. Never
// auth-gated: retrieval URLs are shareable in both variants.
func (h HandlerSet) ServeUpload(c *gin.Context) {
	name := c.Param("filename")

	reader, entry, err := h.store.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.respondError(c, apierr.NotFound("image not found"))
			return
		}
		h.respondError(c, err)
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(entry.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	c.DataFromReader(http.StatusOK, entry.Size, contentType, reader, nil)
}
