// Package web serves the reconciliation dashboard API: the latest run
// summary, per-day comparisons, alerts and the archived trip history.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/config"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
	"github.com/Haokaiiii/WFX-Timesheet/internal/store"
	"github.com/Haokaiiii/WFX-Timesheet/internal/web/handlers"
	"github.com/Haokaiiii/WFX-Timesheet/internal/web/middleware"
)

// Server hosts the dashboard API. It holds the most recent
// reconciliation summary in memory and reads archived raw inputs from
// the store when one is configured.
type Server struct {
	config     *config.Config
	log        *zap.Logger
	store      *store.Connection
	httpServer *http.Server
	router     *mux.Router

	mu     sync.RWMutex
	latest *model.ReconciliationSummary
}

// NewServer creates the dashboard server. The store connection is
// optional; trip history endpoints return 503 without one.
func NewServer(cfg *config.Config, st *store.Connection, log *zap.Logger) *Server {
	server := &Server{
		config: cfg,
		log:    log,
		store:  st,
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// SetSummary publishes a finished run to the dashboard.
func (s *Server) SetSummary(summary *model.ReconciliationSummary) {
	s.mu.Lock()
	s.latest = summary
	s.mu.Unlock()
}

// Latest returns the most recently published summary, or nil before
// the first run completes.
func (s *Server) Latest() *model.ReconciliationSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	summaryHandler := &handlers.SummaryHandler{Source: s, Log: s.log}
	tripsHandler := &handlers.TripsHandler{Store: s.store, Log: s.log}

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/summary", summaryHandler.GetSummary).Methods("GET")
	api.HandleFunc("/summary/days", summaryHandler.ListDays).Methods("GET")
	api.HandleFunc("/summary/days/{date:[0-9]{4}-[0-9]{2}-[0-9]{2}}", summaryHandler.GetDay).Methods("GET")
	api.HandleFunc("/alerts", summaryHandler.GetAlerts).Methods("GET")
	api.HandleFunc("/trips", tripsHandler.ListTrips).Methods("GET")

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"ok"}`)
}

// Start runs the server until SIGINT or SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		s.log.Info("dashboard listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", zap.Error(err))
		}
	}()

	<-stop
	s.log.Info("shutting down dashboard")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("web: shutdown: %w", err)
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("store close", zap.Error(err))
		}
	}

	return nil
}
