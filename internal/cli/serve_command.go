package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelshelf/internal/filesystem"
	"reelshelf/internal/handlers"
	"reelshelf/internal/indexer"
	"reelshelf/internal/logging"
	"reelshelf/internal/metrics"
	"reelshelf/internal/middleware"
	"reelshelf/internal/poster"
	"reelshelf/internal/startup"
)

const (
	shutdownTimeout = 30 * time.Second
	metricsInterval = time.Minute
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var (
		listen     string
		noIndex    bool
		logMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over a read-only HTTP API and rescan in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			startTime := time.Now()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.HTTP.Listen = listen
			}

			cfg.ApplyMemoryLimit()
			startup.LogConfig(cfg, ctx.configPath, ctx.configExists)

			metrics.InitializeMetrics()
			filesystem.SetObserver(metrics.NewFilesystemObserver())
			if err := poster.InitVips(); err != nil {
				logging.Warn("libvips unavailable, posters will be checked with the Go decoders: %v", err)
			}
			defer poster.ShutdownVips()

			if err := startup.PrepareDirectories(cfg); err != nil {
				return err
			}
			ffmpeg, ffprobe := cfg.Tools()
			for _, tool := range startup.CheckTools(cmd.Context(), ffmpeg, ffprobe) {
				if !tool.Available() {
					logging.Warn("%s unavailable: %s", tool.Name, tool.Error)
				}
			}

			dbStart := time.Now()
			db, err := ctx.openCatalog(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer db.Close()
			startup.LogDatabaseInit(time.Since(dbStart), db.FTSEnabled())

			collector := metrics.NewCollector(db, metricsInterval)
			collector.Start()
			defer collector.Stop()

			icfg := indexerConfig(cfg)
			icfg.SkipInitial = noIndex
			startup.LogIndexerInit(icfg.Schedule, icfg.Watch)
			idx := indexer.New(newReconciler(cfg, db), icfg)
			idx.SetOnIndexComplete(func(result indexer.RunResult) {
				if result.Error != "" {
					logging.Warn("Scan %s stopped: %s", result.RunID, result.Error)
				}
			})
			if err := idx.Start(); err != nil {
				return err
			}
			startup.LogIndexerStarted()

			router := handlers.NewRouter(handlers.New(db, idx))
			startup.LogHTTPRoutes(router)

			logConfig := middleware.DefaultLoggingConfig()
			logConfig.LogMetrics = logMetrics

			ln, err := net.Listen("tcp", cfg.HTTP.Listen)
			if err != nil {
				idx.Stop()
				return fmt.Errorf("listen on %s: %w", cfg.HTTP.Listen, err)
			}

			srv := &http.Server{
				Handler:           handlers.Wrap(router, logConfig),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.Serve(ln)
			}()
			startup.LogServerStarted(startup.ServerConfig{
				Listen:          cfg.HTTP.Listen,
				StartupDuration: time.Since(startTime),
			})

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			select {
			case err := <-serveErr:
				idx.Stop()
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)
			case sig := <-sigChan:
				return shutdown(srv, idx, sig.String())
			case <-cmd.Context().Done():
				return shutdown(srv, idx, "cancellation")
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override http.listen, e.g. 127.0.0.1:8787")
	cmd.Flags().BoolVar(&noIndex, "no-initial-scan", false, "Skip the scan at startup; rely on the schedule, watcher or POST /api/scan")
	cmd.Flags().BoolVar(&logMetrics, "log-metrics", false, "Include /metrics requests in the access log")
	return cmd
}

// shutdown stops the indexer at the next file boundary and drains the
// server within shutdownTimeout.
func shutdown(srv *http.Server, idx *indexer.Indexer, reason string) error {
	startup.LogShutdownInitiated(reason)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Stopping indexer")
	idx.Stop()
	startup.LogShutdownStepComplete("Indexer stopped")

	startup.LogShutdownStep("Shutting down HTTP server")
	err := srv.Shutdown(ctx)
	if err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
	return err
}
