package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mtarnawa/dexpulse/internal/dashboard"
	"github.com/mtarnawa/dexpulse/internal/server"
	"github.com/mtarnawa/dexpulse/internal/server/handler"
	"github.com/mtarnawa/dexpulse/internal/server/ws"
	"github.com/mtarnawa/dexpulse/internal/service"
)

// ServerMode starts the HTTP API only. No background polling runs and the
// dashboard endpoints report unavailable.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil, nil)
	return g.Wait()
}

// DashboardMode starts the polling dashboard controller, the WebSocket hub
// that pushes its snapshots, and the HTTP server.
func (a *App) DashboardMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting dashboard mode",
		slog.String("network", a.cfg.Dashboard.Network),
		slog.Duration("interval", a.cfg.Dashboard.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	ctrl, hub := a.startDashboard(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps, ctrl, hub)
	return g.Wait()
}

// FullMode starts all subsystems: the dashboard controller, the WebSocket hub,
// and the HTTP server with rate limiting when configured.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)
	ctrl, hub := a.startDashboard(ctx, g, deps)
	a.startHTTPServer(ctx, g, deps, ctrl, hub)
	return g.Wait()
}

// startDashboard builds the controller and WebSocket hub and adds their run
// loops to the errgroup. Snapshots published by the controller are broadcast
// to every connected WebSocket client.
func (a *App) startDashboard(ctx context.Context, g *errgroup.Group, deps *Dependencies) (*dashboard.Controller, *ws.Hub) {
	ctrl := dashboard.NewController(
		deps.Pools,
		deps.Notifier,
		a.cfg.Dashboard.Network,
		a.cfg.Dashboard.Sort,
		a.cfg.Dashboard.Interval.Duration,
		a.logger,
	)

	hub := ws.NewHub(a.logger)
	ctrl.SetOnUpdate(hub.BroadcastSnapshot)

	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		return ctrl.Run(ctx)
	})

	return ctrl, hub
}

// startHTTPServer adds the HTTP server goroutines to the given errgroup. The
// dashboard controller and WebSocket hub are optional; when absent the
// snapshot endpoint returns unavailable and /ws is not registered. The server
// is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, ctrl *dashboard.Controller, hub *ws.Hub) {
	var snapshots handler.SnapshotSource
	if ctrl != nil {
		snapshots = ctrl
	}

	var cache handler.Pinger
	if deps.Cache != nil {
		cache = deps.Cache
	}

	handlers := server.Handlers{
		Health:    handler.NewHealthHandler(cache, a.logger),
		Status:    handler.NewStatusHandler(a.cfg.Mode, a.cfg.Dashboard.Network, service.SupportedChainIDs(), ctrl != nil),
		Dex:       handler.NewDexHandler(deps.Pools, a.logger),
		Wallet:    handler.NewWalletHandler(deps.Wallets, a.logger),
		Dashboard: handler.NewDashboardHandler(snapshots, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:            a.cfg.Server.Port,
		CORSOrigins:     a.cfg.Server.CORSOrigins,
		RateLimit:       a.cfg.Server.RateLimit,
		RateLimitWindow: a.cfg.Server.RateLimitWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.InfoContext(ctx, "HTTP server shutting down")
		return srv.Shutdown(shutCtx)
	})
}
