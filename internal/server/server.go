// Package server assembles the HTTP API: routes, middleware chain, and the
// WebSocket endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/server/handler"
	"github.com/mtarnawa/dexpulse/internal/server/middleware"
	"github.com/mtarnawa/dexpulse/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port            int
	CORSOrigins     []string
	RateLimit       int           // requests per window per client, 0 disables
	RateLimitWindow time.Duration // window for RateLimit
}

// Handlers aggregates all HTTP handlers the server registers.
type Handlers struct {
	Health    *handler.HealthHandler
	Status    *handler.StatusHandler
	Dex       *handler.DexHandler
	Wallet    *handler.WalletHandler
	Dashboard *handler.DashboardHandler
}

// Server is the HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered on the ServeMux and
// the middleware chain (rate limiting, logging, CORS) wrapped around it.
// limiter may be nil, which disables rate limiting regardless of config.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// Health and status (never rate limited upstream, cheap local reads).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Market-data endpoints. The literal routes must be registered alongside
	// the {network} wildcard routes; Go 1.22 routing prefers the more
	// specific pattern.
	mux.HandleFunc("GET /api/dex/trending-pools", handlers.Dex.TrendingPools)
	mux.HandleFunc("GET /api/dex/networks", handlers.Dex.Networks)
	mux.HandleFunc("GET /api/dex/search", handlers.Dex.SearchPools)
	mux.HandleFunc("GET /api/dex/{network}/pools", handlers.Dex.NetworkPools)
	mux.HandleFunc("GET /api/dex/{network}/pools/{address}", handlers.Dex.PoolByAddress)
	mux.HandleFunc("GET /api/dex/{network}/pools/{address}/ohlcv/{timeframe}", handlers.Dex.PoolOHLCV)
	mux.HandleFunc("GET /api/dex/{network}/tokens/{address}", handlers.Dex.TokenInfo)
	mux.HandleFunc("GET /api/dex/{network}/tokens/{address}/pools", handlers.Dex.TokenPools)
	mux.HandleFunc("GET /api/dex/{network}/top-pools", handlers.Dex.TopPoolsByMarketCap)
	mux.HandleFunc("GET /api/dex/{network}/new-pools", handlers.Dex.NewPools)
	mux.HandleFunc("GET /api/dex/{network}/dexes", handlers.Dex.NetworkDexes)

	// Wallet portfolio endpoint.
	mux.HandleFunc("GET /api/wallet/{address}", handlers.Wallet.AnalyzeWallet)

	// Dashboard snapshot endpoint.
	mux.HandleFunc("GET /api/dashboard", handlers.Dashboard.GetSnapshot)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	if limiter != nil && cfg.RateLimit > 0 {
		window := cfg.RateLimitWindow
		if window <= 0 {
			window = time.Minute
		}
		h = middleware.RateLimit(limiter, cfg.RateLimit, window)(h)
	}

	h = middleware.Logging(logger)(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
