// Package api serves the risk engine over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"risklo/internal/events"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
	"risklo/internal/sheets"
	"risklo/internal/storage"
)

// Options for creating Server.
type Options struct {
	// Required
	Orchestrator *orchestrator.Orchestrator
	Provider     sheets.Provider

	// Optional
	Store        storage.AnalysisStore
	Metrics      *observability.Metrics
	Reanalyze    *events.Signal[orchestrator.ReanalyzeRequest]
	Results      *events.Signal[orchestrator.ResultEvent]
	Logger       zerolog.Logger
	MaxBodyBytes int64
	Now          func() time.Time
}

// Server routes API requests to the orchestrator and the analysis store.
type Server struct {
	orch      *orchestrator.Orchestrator
	provider  sheets.Provider
	store     storage.AnalysisStore
	metrics   *observability.Metrics
	reanalyze *events.Signal[orchestrator.ReanalyzeRequest]
	results   *events.Signal[orchestrator.ResultEvent]
	logger    zerolog.Logger
	maxBody   int64
	now       func() time.Time

	router   *mux.Router
	upgrader websocket.Upgrader
}

// New creates a Server and registers its routes.
func New(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		orch:      opts.Orchestrator,
		provider:  opts.Provider,
		store:     opts.Store,
		metrics:   opts.Metrics,
		reanalyze: opts.Reanalyze,
		results:   opts.Results,
		logger:    opts.Logger.With().Str("component", "api").Logger(),
		maxBody:   opts.MaxBodyBytes,
		now:       opts.Now,
		router:    mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.recoverMiddleware)
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.observeMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/results", s.handleResultsStream).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/sheets", s.handleSheets).Methods(http.MethodGet)
	api.HandleFunc("/debug/{sheet}", s.handleDebug).Methods(http.MethodGet)
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/bulk-analyze", s.handleBulkAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/import-csv", s.handleImportCSV).Methods(http.MethodPost)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodPost)
	api.HandleFunc("/analyses", s.handleListAnalyses).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", s.handleGetAnalysis).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// Subrouters do not inherit these from the root router.
	s.router.NotFoundHandler = notFound
	s.router.MethodNotAllowedHandler = notAllowed
	api.MethodNotAllowedHandler = notAllowed
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           s,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", cfg.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
