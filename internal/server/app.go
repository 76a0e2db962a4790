// Package server assembles the gateway's dependencies and runs the HTTP
// server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pagefold/mdgate/internal/api"
	"github.com/pagefold/mdgate/internal/config"
	"github.com/pagefold/mdgate/internal/engine/native"
	"github.com/pagefold/mdgate/internal/engine/reader"
	"github.com/pagefold/mdgate/internal/fetch"
	"github.com/pagefold/mdgate/internal/logging"
	"github.com/pagefold/mdgate/internal/mcptool"
	"github.com/pagefold/mdgate/internal/orchestrator"
	"github.com/pagefold/mdgate/internal/ratelimit"
)

// Name and Version identify the service in logs, the descriptor route, and
// the MCP implementation card.
const (
	Name    = "mdgate"
	Version = "1.0.0"
)

// App contains the application's dependencies.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	apiServer *api.Server
}

// Build creates the application's dependencies.
func Build(_ context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(Name, cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)

	eng, err := buildEngine(cfg, logger)
	if err != nil {
		return nil, err
	}

	gate := ratelimit.NewGate(nil, ratelimit.Config{
		Enabled:            cfg.RateLimit.Enabled,
		TransportPerWindow: cfg.RateLimit.TransportPerWindow,
		APIPerWindow:       cfg.RateLimit.APIPerWindow,
		BatchPerWindow:     cfg.RateLimit.BatchPerWindow,
	}, logger.Named("ratelimit"))

	orch := orchestrator.New(eng, logger.Named("orchestrator"))

	mcpServer := mcptool.NewServer(orch, Version, logger.Named("mcp"))

	apiServer := api.NewServer(api.Options{
		Orchestrator: orch,
		Gate:         gate,
		Logger:       logger.Named("api"),
		Name:         Name,
		Version:      Version,
		MCPHandler:   mcptool.StreamableHandler(mcpServer),
		SSEHandler:   mcptool.SSEHandler(mcpServer),
	})

	return &App{cfg: cfg, logger: logger, apiServer: apiServer}, nil
}

func buildEngine(cfg config.Config, logger *zap.Logger) (fetch.Engine, error) {
	switch cfg.Engine.Mode {
	case config.EngineRemote:
		logger.Info("using remote conversion engine", zap.String("endpoint", cfg.Engine.Endpoint))
		return reader.New(reader.Config{
			Endpoint:  cfg.Engine.Endpoint,
			UserAgent: cfg.Engine.UserAgent,
		}, logger.Named("reader")), nil
	case config.EngineNative:
		logger.Info("using native conversion engine", zap.String("user_agent", cfg.Engine.UserAgent))
		return native.New(native.Config{
			UserAgent: cfg.Engine.UserAgent,
		}, native.NewTiktokenCounter(), logger.Named("native")), nil
	default:
		return nil, fmt.Errorf("unknown engine mode %q", cfg.Engine.Mode)
	}
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
	return nil
}
