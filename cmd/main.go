package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/okian/crema/internal/adapters/catalog"
	"github.com/okian/crema/internal/adapters/http/api"
	"github.com/okian/crema/internal/adapters/statestore"
	advisor "github.com/okian/crema/internal/app"
	"github.com/okian/crema/internal/config"
	"github.com/okian/crema/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	// A local .env can supply CREMA_* variables during development.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := buildStore(cfg)
	if err != nil {
		log.Error(ctx, "failed to open durable store", logger.Error(err))
		return
	}

	registry := catalog.NewMemory()

	svc := advisor.New(
		advisor.WithStore(store),
		advisor.WithMachineSource(registry),
		advisor.WithRunSource(registry),
		advisor.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))), //nolint:gosec // candidate sampling, not crypto
		advisor.WithLogger(log.Named("advisor")),
		advisor.WithDefaultConfig(cfg.Advisor),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start advisor service", logger.Error(err))
		return
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Recover())
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout
	e.Server.ReadHeaderTimeout = readHeaderTimeout

	api.NewServer(svc, registry, log.Named("api")).Register(e)

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "graceful shutdown failed", logger.Error(err))
	}
}

// buildStore opens the configured durable-store backend.
func buildStore(cfg *config.Config) (statestore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return statestore.NewMemoryStore(), nil
	case config.BackendFile:
		return statestore.NewFileStore(cfg.StorePath)
	case config.BackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		return statestore.NewPostgresStore(db)
	default:
		return nil, config.ErrInvalidConfig
	}
}
