// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/lifeos/internal/api"
	"github.com/starford/lifeos/internal/dates"
	"github.com/starford/lifeos/internal/gateway"
	"github.com/starford/lifeos/internal/inbox"
	"github.com/starford/lifeos/internal/mcpserver"
	"github.com/starford/lifeos/internal/session"
	"github.com/starford/lifeos/internal/sheetstub"
	"github.com/starford/lifeos/internal/sse"
	"github.com/starford/lifeos/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	drainTimeout    = 5 * time.Second
)

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// newSession wires the normalizer, gateway and store into a session and
// performs the configured auto-login.
func newSession(ctx context.Context, cfg *Config, logger *slog.Logger) (*session.Controller, error) {
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}
	norm := dates.New(loc)

	remote := gateway.New(cfg.Remote.Endpoint, cfg.Remote.Timeout,
		gateway.WithNormalizer(norm),
		gateway.WithLogger(logger))
	if !remote.Enabled() {
		logger.Warn("remote endpoint not configured, running on local state only")
	}

	store := storage.NewMemory(norm, cfg.Defaults.Settings())
	sess := session.New(remote, store,
		session.WithNormalizer(norm),
		session.WithLogger(logger))

	if cfg.Remote.UserID != "" {
		if err := sess.Login(ctx, cfg.Remote.UserID); err != nil {
			return nil, fmt.Errorf("auto-login: %w", err)
		}
		snap := sess.Snapshot()
		logger.Info("Session opened",
			slog.String("user_id", cfg.Remote.UserID),
			slog.Int("records", snap.Len()))
	}
	return sess, nil
}

// drain waits a bounded time for background writes before exit.
func drain(sess *session.Controller, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := sess.Drain(ctx); err != nil {
		logger.Warn("pending writes abandoned", slog.Int("pending", sess.Pending()))
	}
}

// Run starts the dashboard HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.Bool("remote_enabled", cfg.Remote.Endpoint != ""),
		slog.String("inbox_path", cfg.Inbox.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	sess, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()
	sess.OnChange(broker.PublishChange)

	// Build API handler and router.
	h := api.NewHandler(sess, broker)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","session":%q}`, sess.State())
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start photo inbox with SSE failure reports.
	if cfg.Inbox.Path != "" {
		g.Go(func() error {
			err := inbox.Watch(gCtx, cfg.Inbox.Path, sess, logger, func(res inbox.Result) {
				if res.Err == nil {
					return
				}
				broker.Publish(sse.Event{
					Type: sse.TypeAnalysisFailed,
					Data: map[string]string{"file": res.File, "kind": string(res.Kind), "error": res.Err.Error()},
				})
			})
			if err != nil {
				logger.Error("inbox watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		waitForShutdown(gCtx, logger)

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		drain(sess, logger)
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tools over stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer drain(sess, logger)

	logger.Info("MCP server starting on stdio")
	if err := mcpserver.New(sess).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// RunStub serves the SQLite-backed sheet stub.
func RunStub(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	db, err := sheetstub.Open(cfg.Stub.SQLitePath)
	if err != nil {
		return fmt.Errorf("init sheet stub: %w", err)
	}
	defer db.Close()

	httpServer := &http.Server{
		Addr:              cfg.Stub.Address(),
		Handler:           sheetstub.NewHandler(db, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting sheet stub",
			slog.String("address", cfg.Stub.Address()),
			slog.String("sqlite_path", cfg.Stub.SQLitePath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("sheet stub error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		waitForShutdown(gCtx, logger)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("sheet stub shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func waitForShutdown(ctx context.Context, logger *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, initiating shutdown")
	}
}
