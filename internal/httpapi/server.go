package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/storage"
)

// Scanner triggers an immediate check of the watchlist.
type Scanner interface {
	RunOnce(ctx context.Context) (model.BatchResult, error)
}

// Store is the persistence surface the API needs.
type Store interface {
	UpsertItem(ctx context.Context, item model.Item) error
	DeactivateItem(ctx context.Context, itemID string, now time.Time) error
	GetItem(ctx context.Context, itemID string) (model.Item, error)
	ListItems(ctx context.Context) ([]model.Item, error)
	RecentHistory(ctx context.Context, itemID string, limit int) ([]model.PriceRecord, error)
	ListDeals(ctx context.Context, filter storage.DealFilter) ([]storage.Deal, error)
	DismissDeal(ctx context.Context, id uuid.UUID, now time.Time) error
}

// Config holds the HTTP server settings.
type Config struct {
	Port int
}

// Server serves the REST API.
type Server struct {
	cfg     Config
	store   Store
	scanner Scanner
	logger  *slog.Logger

	srv *http.Server
}

// New creates a Server.
func New(cfg Config, store Store, scanner Scanner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		scanner: scanner,
		logger:  logger,
	}
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Routes(),
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", s.handleListItems)
		r.Post("/items", s.handleAddItem)
		r.Delete("/items/{id}", s.handleDeactivateItem)
		r.Get("/items/{id}/history", s.handleItemHistory)

		r.Get("/deals", s.handleListDeals)
		r.Post("/deals/{id}/dismiss", s.handleDismissDeal)

		r.Post("/scan", s.handleScan)
	})

	return r
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Info("api server started", "port", s.cfg.Port)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
