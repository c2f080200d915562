package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/opinionmarketcap/internal/domain"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/handler"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/middleware"
	"github.com/alanyoungcy/opinionmarketcap/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // empty disables authentication

	// RateLimit is requests per RateWindow per client IP; zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates the HTTP handlers the server registers.
type Handlers struct {
	Health   *handler.HealthHandler
	Opinions *handler.OpinionHandler
	History  *handler.HistoryHandler
	Users    *handler.UserHandler
	Pools    *handler.PoolHandler
	Indexer  *handler.IndexerHandler
	// MarketCap returns the currently displayed market-cap value; optional.
	MarketCap http.HandlerFunc
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer registers all routes and wraps them in the middleware chain.
// limiter may be nil.
func NewServer(cfg Config, h Handlers, hub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.Health.HealthCheck)

	mux.HandleFunc("GET /api/opinions", h.Opinions.ListOpinions)
	mux.HandleFunc("GET /api/opinions/{id}", h.Opinions.GetOpinion)
	mux.HandleFunc("GET /api/opinions/{id}/history", h.History.PriceHistory)
	mux.HandleFunc("GET /api/opinions/{id}/pools", h.Pools.ByOpinion)
	mux.HandleFunc("GET /api/market-cap/history", h.History.MarketCapHistory)
	if h.MarketCap != nil {
		mux.HandleFunc("GET /api/market-cap", h.MarketCap)
	}

	mux.HandleFunc("GET /api/users/{address}/badges", h.Users.Badges)
	mux.HandleFunc("POST /api/users/{address}/badges/seen", h.Users.MarkBadgesSeen)
	mux.HandleFunc("GET /api/users/{address}/onboarding", h.Users.GetOnboarding)
	mux.HandleFunc("POST /api/users/{address}/onboarding", h.Users.UpdateOnboarding)
	mux.HandleFunc("POST /api/users/{address}/shares", h.Users.RecordShare)
	mux.HandleFunc("GET /api/users/{address}/watchlist", h.Users.Watchlist)
	mux.HandleFunc("POST /api/users/{address}/watchlist/{id}", h.Users.Watch)
	mux.HandleFunc("DELETE /api/users/{address}/watchlist/{id}", h.Users.Unwatch)

	mux.HandleFunc("GET /api/pools/{id}/plan", h.Pools.Plan)

	if h.Indexer != nil {
		mux.HandleFunc("POST /api/indexer/trigger", h.Indexer.Trigger)
	}
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.HandleWS)
	}

	var chain http.Handler = mux
	chain = middleware.Auth(cfg.APIKey, "/api/health", "/ws")(chain)
	if limiter != nil && cfg.RateLimit > 0 {
		chain = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, logger)(chain)
	}
	chain = middleware.Logging(logger)(chain)
	chain = middleware.CORS(cfg.CORSOrigins)(chain)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           chain,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start listens until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests within the ctx deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
