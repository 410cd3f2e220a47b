// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/edupath/internal/api"
	"github.com/starford/edupath/internal/catalogservice"
	"github.com/starford/edupath/internal/docstore"
	"github.com/starford/edupath/internal/importer"
	"github.com/starford/edupath/internal/mcpserver"
	"github.com/starford/edupath/internal/snapshot"
	"github.com/starford/edupath/internal/sse"
	"github.com/starford/edupath/internal/storage"
)

// runtime is the wiring shared by every command.
type runtime struct {
	cfg     *Config
	logger  *slog.Logger
	gateway *docstore.Gateway
	version string
}

func (rt *runtime) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.gateway.Close(ctx); err != nil {
		rt.logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}

func (rt *runtime) importer(opts ...importer.Option) *importer.Importer {
	base := []importer.Option{
		importer.WithBatchSize(rt.cfg.Importer.BatchSize),
		importer.WithPace(rt.cfg.Importer.Pace),
	}
	return importer.New(rt.gateway, rt.logger, append(base, opts...)...)
}

// setup applies opts and builds the structured JSON logger.
func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{logOutput: os.Stdout, version: "dev"}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return app, logger, nil
}

// start applies opts, builds the logger and connects the store.
func start(ctx context.Context, opts []Option) (*runtime, error) {
	app, logger, err := setup(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("log_level", cfg.App.LogLevel.String()))

	backend, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("store initialization failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("init store: %w", err)
	}
	rt := &runtime{
		cfg:     cfg,
		logger:  logger,
		gateway: newGateway(backend, cfg.Importer, logger),
		version: app.version,
	}
	if err := rt.gateway.Ping(ctx); err != nil {
		rt.close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return rt, nil
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := start(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	// SSE broker.
	broker := sse.NewBroker(cfg.App.HTTP.Heartbeat)
	defer broker.Close()

	svc := catalogservice.NewService(rt.gateway, broker, logger)
	handler := api.NewServerHandler(svc, logger, broker, cfg.App.HTTP.StaticDir)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Re-import sources on change.
	if cfg.Importer.Watch {
		manifest, err := importer.LoadManifest(cfg.Importer.Manifest)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		im := rt.importer(importer.WithNotifier(svc.ImportNotifier()))
		g.Go(func() error {
			if err := im.Watch(gCtx, manifest); err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
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
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// ImportParams selects what RunImport loads. A non-empty Source.Path
// imports that single file; otherwise the manifest is used.
type ImportParams struct {
	Manifest string
	Source   importer.Source
	Watch    bool
}

// RunImport runs the batch importer, optionally staying up to re-import
// changed sources.
func RunImport(ctx context.Context, params ImportParams, opts ...Option) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	rt, err := start(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	var manifest importer.Manifest
	if params.Source.Path != "" {
		if err := params.Source.Validate(); err != nil {
			return fmt.Errorf("invalid source: %w", err)
		}
		manifest = importer.Manifest{params.Source}
	} else {
		path := params.Manifest
		if path == "" {
			path = rt.cfg.Importer.Manifest
		}
		if manifest, err = importer.LoadManifest(path); err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
	}

	im := rt.importer()
	reports, err := im.RunManifest(ctx, manifest)
	for _, r := range reports {
		rt.logger.Info("import report",
			slog.String("collection", r.Collection),
			slog.String("state", r.Status),
			slog.Int("inserted", r.Inserted),
			slog.Int("skipped", r.Skipped),
			slog.Int("failed", r.Failed))
	}
	if err != nil {
		return err
	}
	if params.Watch {
		return im.Watch(ctx, manifest)
	}
	return nil
}

// RunMCP serves the catalog tools over stdio.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := start(ctx, append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	defer rt.close()

	svc := catalogservice.NewService(rt.gateway, nil, rt.logger)
	return mcpserver.New(svc, rt.version).ServeStdio()
}

// RunExport writes a snapshot of the named collections (all when empty).
// out gets the snapshot extension when it has none.
func RunExport(ctx context.Context, out string, collections []string, opts ...Option) error {
	rt, err := start(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	if filepath.Ext(out) == "" {
		out += snapshot.FileExtension
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	meta, err := snapshot.Export(ctx, rt.gateway, f, collections)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	rt.logger.Info("snapshot written",
		slog.String("path", out),
		slog.Any("collections", meta.Collections))
	return nil
}

// RunRestore re-imports a snapshot.
func RunRestore(ctx context.Context, in string, opts ...Option) error {
	ctx, stop := signalContext(ctx)
	defer stop()

	rt, err := start(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	f, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	reports, err := snapshot.Restore(ctx, rt.importer(), io.Reader(f))
	for _, r := range reports {
		rt.logger.Info("restore report",
			slog.String("collection", r.Collection),
			slog.Int("inserted", r.Inserted),
			slog.Int("skipped", r.Skipped))
	}
	return err
}

// RunSplit writes one seed file per degree listed in input, a path under
// dataDir. It does not touch the store.
func RunSplit(dataDir, input string, opts ...Option) error {
	_, logger, err := setup(opts)
	if err != nil {
		return err
	}
	files, err := storage.NewFS(dataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	report, err := importer.SplitDegrees(files, input, logger)
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}
	logger.Info("split report",
		slog.Int("written", len(report.Written)),
		slog.Int("skipped", len(report.Skipped)),
		slog.Int("failed", len(report.Failed)))
	return nil
}
