package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/egme/khlav-kalash/internal/config"
	"github.com/egme/khlav-kalash/internal/handlers"
	uiassets "github.com/egme/khlav-kalash/ui/assets"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)

	// Public checkout flow. Permalinks are the only identifiers exposed here.
	r.HandleFunc("/", h.NewOrderForm).Methods("GET").Name("orders.new")
	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")
	r.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	r.HandleFunc("/pay/{permalink}", h.Pay).Methods("GET").Name("orders.pay")
	r.HandleFunc("/order/{permalink}", h.Permalink).Methods("GET").Name("orders.permalink")

	r.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", http.FileServer(http.FS(uiassets.FS)))).Name("assets")

	// Admin area - basic auth required
	adminRouter := r.PathPrefix("/orders").Subrouter()
	adminRouter.Use(h.RequireBasicAuth)
	adminRouter.HandleFunc("", h.AdminOrders).Methods("GET").Name("admin.orders")
	adminRouter.HandleFunc("/{id}", h.AdminShowOrder).Methods("GET").Name("admin.orders.show")
	adminRouter.HandleFunc("/{id}/edit", h.AdminEditOrder).Methods("GET").Name("admin.orders.edit")
	adminRouter.HandleFunc("/{id}", h.AdminUpdateOrder).Methods("POST", "PUT", "PATCH").Name("admin.orders.update")
	adminRouter.HandleFunc("/{id}", h.AdminDeleteOrder).Methods("DELETE").Name("admin.orders.delete")

	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	return r
}
