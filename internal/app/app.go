package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sundayezeilo/linkstore/internal/config"
	"github.com/sundayezeilo/linkstore/internal/link"
	"github.com/sundayezeilo/linkstore/internal/server"
	"github.com/sundayezeilo/linkstore/internal/store/postgres"
	"github.com/sundayezeilo/linkstore/internal/store/sqlite"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   link.Store
	Server  *server.Server
	Handler *link.Handler

	closeStore func()
}

// New loads configuration from the environment and wires the application.
func New(ctx context.Context) (*App, error) {
	if err := loadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewFromConfig(ctx, cfg, SetupLogger(cfg.App.LogLevel))
}

// NewFromConfig wires the application from an already loaded configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("starting application",
		"env", cfg.App.Environment,
		"store", cfg.Store.Backend(),
	)

	store, closeStore, err := OpenStore(ctx, cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open link store: %w", err)
	}

	svc := link.NewService(store)
	handler := link.NewHandler(link.HandlerConfig{
		Service: svc,
		Logger:  logger,
	})

	srv := server.New(cfg, logger, handler)

	logger.Info("application initialized",
		"listen_addr", cfg.Server.ListenAddr,
	)

	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Server:     srv,
		Handler:    handler,
		closeStore: closeStore,
	}, nil
}

// Start starts the application server.
func (a *App) Start(ctx context.Context) error {
	a.Logger.Info("server starting",
		"listen_addr", a.Config.Server.ListenAddr,
	)

	if err := a.Server.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	if a.closeStore != nil {
		a.closeStore()
		a.Logger.Info("link store closed")
	}

	return nil
}

// OpenStore connects the link store selected by the URL scheme and makes
// sure its schema exists. The returned func releases the connection.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (link.Store, func(), error) {
	logger.Info("connecting to link store",
		"backend", cfg.Backend(),
		"url", cfg.Redacted(),
	)

	switch cfg.Backend() {
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, postgres.PoolConfig{
			URL:      cfg.URL,
			MaxConns: cfg.MaxConns,
			MinConns: cfg.MinConns,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("link store ready")
		return postgres.New(pool, nil), pool.Close, nil

	case config.BackendSQLite, config.BackendLibSQL:
		store, err := sqlite.Open(ctx, cfg.URL, nil)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("link store ready")
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database URL %q", cfg.Redacted())
	}
}

// loadEnv loads .env file only in non-production environments.
func loadEnv() error {
	env := os.Getenv("APP_ENV")
	if env == "" || env == "development" || env == "test" {
		if err := godotenv.Load(); err != nil {
			log.Println("no .env file found.")
		}
	}
	return nil
}

// SetupLogger creates a structured logger based on the log level.
func SetupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
