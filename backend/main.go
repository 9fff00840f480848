// ABOUTME: Entry point for the Drive Ogan Ilir web tier
// ABOUTME: Serves the session proxy API, upload routes and server-rendered pages

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angga1207/drive-oi-v3-sub000/backend/cache"
	"github.com/angga1207/drive-oi-v3-sub000/backend/config"
	"github.com/angga1207/drive-oi-v3-sub000/backend/handlers"
	"github.com/angga1207/drive-oi-v3-sub000/backend/logger"
	"github.com/angga1207/drive-oi-v3-sub000/backend/middleware"
	"github.com/angga1207/drive-oi-v3-sub000/backend/models"
	"github.com/angga1207/drive-oi-v3-sub000/backend/services"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("Failed to load .env", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logger.Init()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting Drive Ogan Ilir web tier", "environment", cfg.Environment)
	slog.Info("Drive API configured", "url", cfg.DriveAPIURL, "timeout", cfg.DriveAPITimeout)
	if cfg.DriveAPIAllProxy != "" {
		slog.Info("Drive API traffic routed through SSH jumpbox")
	}

	sealer, err := newSealer(cfg)
	if err != nil {
		slog.Error("Failed to initialize session sealer", "error", err)
		os.Exit(1)
	}
	sessions := services.NewSessionService(sealer, cfg.CookieSecure)

	// Profile refresh cache
	profileTTL := time.Duration(cfg.ProfileCacheTTL) * time.Second
	profiles := cache.New[models.User](profileTTL)
	defer profiles.Close()
	slog.Info("Profile cache initialized", "ttl", profileTTL)

	h := handlers.NewHandler(cfg, sessions, profiles)

	var limiters handlers.Limiters
	if cfg.RateLimitEnabled {
		limiters = handlers.Limiters{
			Auth:    middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute),
			Upload:  middleware.NewRateLimiter(cfg.RateLimitUpload, time.Minute),
			Default: middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute),
		}
		slog.Info("Rate limiting enabled",
			"auth", cfg.RateLimitAuth, "upload", cfg.RateLimitUpload, "default", cfg.RateLimitDefault)
	} else {
		slog.Warn("Rate limiting disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := h.Drive().Ping(pingCtx); err != nil {
		slog.Warn("Drive API not reachable at startup, continuing", "error", err)
	}
	cancel()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Server(limiters),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}

// newSealer derives the cookie key from SESSION_SECRET. Without one (development
// only; config rejects it in production) a random key is used and sessions do
// not survive a restart.
func newSealer(cfg *config.Config) (*services.Sealer, error) {
	if cfg.SessionSecret != "" {
		return services.NewSealer([]byte(cfg.SessionSecret))
	}
	slog.Warn("SESSION_SECRET not set, using a random key; sessions reset on restart")
	return services.NewRandomSealer()
}
