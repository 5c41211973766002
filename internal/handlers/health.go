package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	storageStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		storageStatus = "error"
		h.log.Error().Err(err).Msg("storage check failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"storage":     storageStatus,
		"environment": h.cfg.Environment,
	})
}
