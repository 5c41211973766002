package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"imagedrop/api/internal/config"
	"imagedrop/api/internal/handlers"
	"imagedrop/api/internal/jobs"
	"imagedrop/api/internal/log"
	"imagedrop/api/internal/security"
	"imagedrop/api/internal/server"
	"imagedrop/api/internal/service"
	"imagedrop/api/internal/session"
	"imagedrop/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var store storage.Backend
	switch cfg.Storage.Backend {
	case "s3":
		store, err = storage.NewS3Backend(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init s3 storage")
		}
	default:
		store = storage.NewLocalBackend(cfg.Storage.Dir)
	}
	if err := store.EnsureReady(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	var (
		sessions    session.Store
		authService *service.AuthService
		memStore    *session.MemoryStore
	)
	if cfg.Auth.Enabled {
		if cfg.Session.Secret == config.InsecureDefaultSecret {
			logger.Warn().Msg("session secret is the insecure built-in default; override it in deployment")
		}

		switch cfg.Session.Store {
		case "redis":
			redisStore, err := session.NewRedisStore(ctx, cfg.Session.Redis)
			if err != nil {
				logger.Fatal().Err(err).Msg("failed to connect redis")
			}
			sessions = redisStore
		default:
			memStore = session.NewMemoryStore()
			sessions = memStore
		}

		users, err := service.NewStaticUsers(cfg.Auth.Users)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid user list")
		}
		authService = service.NewAuthService(users, sessions, security.VerifyPassword, cfg.Session.TTL, logger)
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, sessions, authService)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	var scheduler *jobs.Scheduler
	if memStore != nil {
		scheduler = jobs.NewScheduler(memStore, logger)
		if err := scheduler.Start(); err != nil {
			logger.Error().Err(err).Msg("scheduler start failed")
		}
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, sessions)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, sessions session.Store) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	if closer, ok := sessions.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error().Err(err).Msg("session store close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
