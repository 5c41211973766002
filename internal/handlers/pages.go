package handlers

import (
	"path/filepath"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) Home(c *gin.Context) {
	c.File(filepath.Join(h.cfg.HTTP.PublicDir, "index.html"))
}

func (h HandlerSet) LoginPage(c *gin.Context) {
	c.File(filepath.Join(h.cfg.HTTP.PublicDir, "login.html"))
}
