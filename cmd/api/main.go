package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"tutorattend/internal/attendance"
	"tutorattend/internal/config"
	"tutorattend/internal/handler"
	"tutorattend/internal/httpmiddleware"
	"tutorattend/internal/logger"
	"tutorattend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "json")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runHTTP(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

// runHTTP serves until ctx is cancelled, then shuts down gracefully.
func runHTTP(ctx context.Context, cfg config.App, log zerolog.Logger) error {
	srv, cleanup, err := newServer(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()
	return serve(ctx, srv, cfg.ShutdownTimeout, log)
}

func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// newServer opens the store and redis and builds the HTTP server. cleanup
// closes both.
func newServer(ctx context.Context, cfg config.App, log zerolog.Logger) (*http.Server, func(), error) {
	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := store.Open(openCtx, cfg.DBPath, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Str("dialect", string(db.Dialect)).
		Bool("postgres", cfg.UsesPostgres()).
		Msg("database ready")

	redisClient := store.NewRedis(cfg.RedisAddr)
	cleanup := func() {
		_ = redisClient.Close()
		_ = db.Close()
	}

	var limiter httpmiddleware.Limiter
	switch {
	case cfg.RateLimitPerMin <= 0:
		log.Info().Msg("rate limiting disabled")
	case redisClient != nil:
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
		log.Info().Str("redis", cfg.RedisAddr).Msg("using redis rate limiter")
	default:
		limiter = httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	svc := attendance.NewService(attendance.NewRepository(db))
	r := handler.NewRouter(handler.RouterConfig{
		Logger:         log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Limiter:        limiter,
	}, handler.New(svc), handler.NewHealth(db, redisClient))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv, cleanup, nil
}
