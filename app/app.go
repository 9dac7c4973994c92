package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lmittmann/tint"

	"github.com/egme/khlav-kalash/internal/config"
	"github.com/egme/khlav-kalash/internal/db"
	"github.com/egme/khlav-kalash/internal/email"
	"github.com/egme/khlav-kalash/internal/handlers"
	"github.com/egme/khlav-kalash/internal/logging"
	"github.com/egme/khlav-kalash/internal/services"
	"github.com/egme/khlav-kalash/internal/stripe"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	DB       *pgxpool.Pool
	Handlers *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.1,
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	logger := newLogger(cfg)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	database, err := db.Connect(startupCtx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(startupCtx, database); err != nil {
		database.Close()
		return nil, err
	}

	orderStore := db.NewOrderStore(database)
	payments := stripe.NewClient(cfg.StripeSecretKey, cfg.StripeTimeout, logger.With("component", "stripe"))

	var receipts services.ReceiptSender
	if cfg.ReceiptEmailEnabled() {
		receipts = services.NewEmailReceiptSender(email.NewResendProvider(cfg.ResendAPIKey, cfg.EmailFrom))
	}

	orderService := services.NewOrderService(
		orderStore,
		payments,
		receipts,
		cfg,
		logger.With("component", "order_service"),
	)

	h, err := handlers.New(handlers.Dependencies{
		Config:       cfg,
		DB:           database,
		OrderService: orderService,
		Logger:       logger,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		DB:       database,
		Handlers: h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Config != nil && a.Config.SentryDSN != "" {
		sentry.Flush(2 * time.Second)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		})
	}

	if cfg.SentryDSN == "" {
		return slog.New(console)
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(logging.MultiHandler(console, sentryHandler))
}
