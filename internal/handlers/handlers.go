package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/egme/khlav-kalash/internal/config"
	"github.com/egme/khlav-kalash/internal/logging"
	"github.com/egme/khlav-kalash/internal/services"
)

// Handlers provides the HTTP handlers for the checkout flow and the admin
// area.
type Handlers struct {
	config *config.Config
	db     *pgxpool.Pool
	orders *services.OrderService
	logger *slog.Logger
}

type Dependencies struct {
	Config       *config.Config
	DB           *pgxpool.Pool
	OrderService *services.OrderService
	Logger       *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: order service is required")
	}

	return &Handlers{
		config: deps.Config,
		db:     deps.DB,
		orders: deps.OrderService,
		logger: logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}
