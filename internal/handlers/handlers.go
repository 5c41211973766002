package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"imagedrop/api/internal/config"
	"imagedrop/api/internal/middleware"
	"imagedrop/api/internal/service"
	"imagedrop/api/internal/session"
	"imagedrop/api/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	uploads  *service.UploadService
	catalog  *service.CatalogService
	auth     *service.AuthService
	sessions session.Store
	store    storage.Backend
}

// NewHandlerSet wires the services behind the HTTP surface. auth and sessions
// are nil when the session gate is disabled.
func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	store storage.Backend,
	sessions session.Store,
	auth *service.AuthService,
) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		uploads:  service.NewUploadService(store, cfg, log),
		catalog:  service.NewCatalogService(store, log),
		auth:     auth,
		sessions: sessions,
		store:    store,
	}
}

func (h HandlerSet) Register(engine *gin.Engine) {
	// Batch limit plus parsing overhead; individual files are still checked
	// against the per-file cap.
	bodyLimit := middleware.BodyLimit(
		int64(h.cfg.Upload.MaxFiles)*h.cfg.Upload.MaxFileSize + 1024*1024)

	engine.GET("/healthz", h.Health)
	engine.GET("/uploads/:filename", h.ServeUpload)

	if !h.cfg.Auth.Enabled {
		engine.GET("/", h.Home)
		engine.POST("/upload", bodyLimit, h.UploadImage)
		engine.POST("/upload-multiple", bodyLimit, h.UploadMultiple)
		engine.GET("/images", h.ListImages)
		return
	}

	secret := h.cfg.Session.Secret

	// Page routes redirect on auth mismatch; API routes answer with the
	// JSON envelope.
	engine.GET("/", middleware.RequireSessionPage(secret, h.sessions), h.Home)
	engine.GET("/login", middleware.RedirectAuthenticated(secret, h.sessions), h.LoginPage)
	engine.POST("/login", h.Login)
	engine.POST("/logout", h.Logout)

	gate := middleware.RequireSession(secret, h.sessions)
	engine.POST("/upload", gate, bodyLimit, h.UploadImage)
	engine.POST("/upload-multiple", gate, bodyLimit, h.UploadMultiple)
	engine.GET("/images", gate, h.ListImages)
}
