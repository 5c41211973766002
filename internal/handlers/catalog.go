package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type catalogImage struct {
	Filename   string    `json:"filename"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploadDate"`
}

func (h HandlerSet) ListImages(c *gin.Context) {
	images, err := h.catalog.ListImages(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := make([]catalogImage, 0, len(images))
	for _, image := range images {
		payload = append(payload, catalogImage{
			Filename:   image.Filename,
			URL:        publicURL(c, image.Filename),
			UploadDate: image.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"images":  payload,
	})
}
