package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"imagedrop/api/internal/apierr"
)

type uploadedImage struct {
	ImageURL     string `json:"imageUrl"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

func (h HandlerSet) UploadImage(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		if sizeErr := asSizeLimit(err, h.cfg.Upload.MaxFileSize); sizeErr != nil {
			h.respondError(c, sizeErr)
			return
		}
		h.respondError(c, apierr.Validation("no file selected"))
		return
	}

	image, err := h.uploads.UploadOne(c.Request.Context(), header)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "image uploaded successfully",
		"imageUrl":     publicURL(c, image.Filename),
		"filename":     image.Filename,
		"originalName": image.OriginalName,
		"size":         image.Size,
	})
}

func (h HandlerSet) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		if sizeErr := asSizeLimit(err, h.cfg.Upload.MaxFileSize); sizeErr != nil {
			h.respondError(c, sizeErr)
			return
		}
		h.respondError(c, apierr.Validation("no files selected"))
		return
	}

	headers := form.File["images"]
	if len(headers) == 0 {
		h.respondError(c, apierr.Validation("no files selected"))
		return
	}

	images, err := h.uploads.UploadMany(c.Request.Context(), headers)
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload := make([]uploadedImage, 0, len(images))
	for _, image := range images {
		payload = append(payload, uploadedImage{
			ImageURL:     publicURL(c, image.Filename),
			Filename:     image.Filename,
			OriginalName: image.OriginalName,
			Size:         image.Size,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("uploaded %d images successfully", len(images)),
		"images":  payload,
	})
}

// asSizeLimit recognizes the body-cap trip during multipart parsing so an
// oversized upload surfaces as the dedicated 400 message, never a generic
// failure.
func asSizeLimit(err error, maxFileSize int64) *apierr.Error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apierr.TooLarge(maxFileSize)
	}
	return nil
}
