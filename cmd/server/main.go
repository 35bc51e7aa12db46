package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/tendant/chi-demo/middleware"

	oa "github.com/krues8dr/originallyappeared/pkg/originallyappeared"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/api"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/config"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/events"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/host"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/metrics"
	"github.com/krues8dr/originallyappeared/pkg/originallyappeared/nonce"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n\n%s\n", err, config.Usage(""))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.ServerConfig) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
}

func run(cfg *config.ServerConfig, logger *slog.Logger) error {
	ctx := context.Background()

	repo, closeRepo, err := cfg.BuildRepository(ctx)
	if err != nil {
		return fmt.Errorf("failed to build repository: %w", err)
	}
	defer closeRepo()

	canonical := host.PermalinkCanonical{BaseURL: cfg.BaseURL}
	hooks := host.NewHooks(canonical)
	hooks.OnError(func(hctx *host.HookContext, event string, err error) {
		logger.Error("Hook failed", "event", event, "error", err)
	})

	signer := nonce.New(
		nonce.WithSecretKey(cfg.NonceSecret),
		nonce.WithLifetime(cfg.NonceLifetime),
	)

	options := []oa.Option{
		oa.WithMetaRepository(repo),
		oa.WithTokens(host.NewNonceTokens(signer)),
		oa.WithAuthorizer(host.ClaimsAuthorizer{}),
		oa.WithCanonicalEmitter(canonical),
		oa.WithLogger(logger),
		oa.WithLocale(cfg.LocaleTag()),
	}
	if cfg.DefaultTemplate != "" {
		options = append(options, oa.WithDefaultTemplate(cfg.DefaultTemplate))
	}
	if cfg.EscapePlaceholders {
		options = append(options, oa.WithEscapedPlaceholders())
	}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
		options = append(options, oa.WithMetrics(m))
	}

	if cfg.EventAuditURL != "" {
		sink, err := events.New(cfg.EventAuditURL, events.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to create event sink: %w", err)
		}
		options = append(options, oa.WithEventSink(sink))
	}

	plugin, err := oa.New(options...)
	if err != nil {
		return fmt.Errorf("failed to create plugin: %w", err)
	}
	if err := plugin.Register(hooks); err != nil {
		return fmt.Errorf("failed to register plugin: %w", err)
	}

	var apiKeyAuth func(http.Handler) http.Handler
	if cfg.APIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"key1": cfg.APIKeySHA256,
			},
		})
		if err != nil {
			return fmt.Errorf("failed to initialize API key middleware: %w", err)
		}
		apiKeyAuth = apiKeyMiddleware
	}

	var ready func(context.Context) error
	if cfg.DatabaseType == "postgres" {
		ready = func(ctx context.Context) error {
			return config.PingPostgres(ctx, cfg.DatabaseURL, cfg.DBSchema)
		}
	}

	srv, err := api.New(api.Config{
		Plugin:        plugin,
		Hooks:         hooks,
		Records:       repo,
		Canonical:     canonical,
		JWT:           jwtauth.New("HS256", []byte(cfg.JWTSecret), nil),
		APIKeyAuth:    apiKeyAuth,
		Metrics:       m,
		Ready:         ready,
		SingularPages: cfg.SingularPages,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: srv.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment, "database", cfg.DatabaseType)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exiting")
	return nil
}
