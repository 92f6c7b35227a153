package main

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/josh-kwaku/audit-validator/internal/config"
	"github.com/josh-kwaku/audit-validator/internal/handler"
	"github.com/josh-kwaku/audit-validator/internal/logging"
	"github.com/josh-kwaku/audit-validator/internal/middleware"
	"github.com/josh-kwaku/audit-validator/internal/repository"
	"github.com/josh-kwaku/audit-validator/internal/service"
	"github.com/josh-kwaku/audit-validator/internal/signer"
	"github.com/josh-kwaku/audit-validator/internal/validate"
)

const version = "1.0.0"

//go:embed openapi.yaml
var openAPISpec []byte

func main() {
	// A .env file is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("audit-validator", cfg.LogLevel, cfg.AppEnv)

	verifier, err := loadSigner(cfg)
	if err != nil {
		slog.Error("failed to load signer key", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := validate.NewEngine(cfg.Validation, verifier)
	validations := service.NewValidationService(engine, nil)
	health := handler.NewHealthHandler(nil, version)

	if cfg.DatabaseURL != "" {
		pool, err := openDB(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		db := repository.NewDB(pool)
		runs := repository.NewRunRepository(db)
		validations = service.NewValidationService(engine, runs)
		health = handler.NewHealthHandler(db, version)

		sweeper := service.NewRetentionSweeper(runs, logger, cfg.ResultRetention, cfg.RetentionSweepPeriod)
		go sweeper.Start(ctx)
	} else {
		slog.Warn("DATABASE_URL not set, validation runs will not be stored")
	}

	requireAuth := middleware.Auth(cfg.JWTSecret)
	validationRuns := handler.NewValidationHandler(validations, cfg.MaxUploadBytes)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", health.Liveness)
	mux.HandleFunc("GET /ready", health.Readiness)
	docs := handler.NewDocsHandler(openAPISpec, "/docs/openapi.yaml")
	mux.HandleFunc("GET /docs", docs.UI)
	mux.HandleFunc("GET /docs/openapi.yaml", docs.Document)
	mux.Handle("POST /api/v1/validations", requireAuth(http.HandlerFunc(validationRuns.Create)))
	mux.Handle("GET /api/v1/validations/{id}", requireAuth(http.HandlerFunc(validationRuns.Get)))

	var h http.Handler = mux
	h = middleware.Logging(logger)(h)
	h = middleware.Tracing(h)
	h = middleware.Recovery(h)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr, "persist", cfg.DatabaseURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func loadSigner(cfg *config.Config) (signer.Signer, error) {
	if cfg.SignerPublicKeyPath == "" {
		if cfg.Validation.SignValidation {
			return nil, errors.New("SIGNER_PUBLIC_KEY_PATH is required when SIGN_VALIDATION is enabled")
		}
		return signer.Accept{}, nil
	}

	key, err := signer.LoadPublicKeyFile(cfg.SignerPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("loadSigner: %w", err)
	}
	return signer.NewRSAVerifier(key), nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
		ConnectAttempts:  cfg.DBConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("openDB: %w", err)
	}

	if cfg.MigrationsDir != "" {
		if err := repository.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("openDB: %w", err)
		}
	}
	return pool, nil
}
