// Package httpapi serves the monitor's health, status and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/internal/ratelimit"
	"sjsage522/auctionwatcher/logger"
	"sjsage522/auctionwatcher/services/scheduler"
)

// Store is the read side the API needs.
type Store interface {
	Ping(ctx context.Context) error
	RecentSessions(ctx context.Context, limit int) ([]model.ScrapeSession, error)
}

// SchedulerStatus reports the scheduler.
type SchedulerStatus interface {
	Status() scheduler.Status
}

// LimiterStatus reports rate-limit quota usage.
type LimiterStatus interface {
	Status() ratelimit.Status
}

// Deps are the sources behind the endpoints. Limiter and Gatherer are optional.
type Deps struct {
	Store     Store
	Scheduler SchedulerStatus
	Limiter   LimiterStatus
	Channels  []string
	Gatherer  prometheus.Gatherer
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Scheduler scheduler.Status  `json:"scheduler"`
	RateLimit *ratelimit.Status `json:"rate_limit,omitempty"`
	Channels  []string          `json:"notification_channels"`
	Time      time.Time         `json:"time"`
}

const pingTimeout = 2 * time.Second

// NewRouter builds the routes:
//
//	GET /healthz       store reachability
//	GET /status        scheduler, rate limiter and channels
//	GET /api/sessions  recent scrape sessions (?limit=N)
//	GET /metrics       Prometheus exposition
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := deps.Store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			Scheduler: deps.Scheduler.Status(),
			Channels:  deps.Channels,
			Time:      time.Now().UTC(),
		}
		if deps.Limiter != nil {
			st := deps.Limiter.Status()
			resp.RateLimit = &st
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > 100 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 100"})
				return
			}
			limit = n
		}
		sessions, err := deps.Store.RecentSessions(r.Context(), limit)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}
	return r
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Server runs the router until shut down.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

func NewServer(addr string, h http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: logger.ForAPI(),
	}
}

// Start serves in the background. Listen errors other than a clean shutdown
// are logged.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("Status API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Status API stopped")
		}
	}()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
