package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/romangod6/sitemapgen/internal/api"
	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/scheduler"
)

// NewServeCmd serves the stored sitemap and regenerates it on the configured
// cron schedule.
func NewServeCmd(root *rootOptions) *cobra.Command {
	var (
		port       int
		noSchedule bool
		initial    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sitemap and regenerate it on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			opts, err := cfg.SitemapOptions()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, "serve")
			if err != nil {
				return err
			}
			defer a.Close()
			log := a.logger

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			handler := api.NewHandler(ctx, a.pages, a.repo.HomeURL(), a.generator, opts, log)
			server := api.NewServer(cfg.Server.Port, handler, a.registry)

			var sched *scheduler.Scheduler
			if !noSchedule && cfg.Schedule.Cron != "" {
				sched, err = scheduler.New(log, a.generator, cfg.Schedule.Cron, opts)
				if err != nil {
					return err
				}
				sched.Start()
			}

			if initial {
				if err := a.generator.Start(ctx, opts); err != nil {
					log.Error("Initial sitemap generation failed", logger.Error(err))
				}
			}

			// Start the API server
			go func() {
				log.Info("Starting API server", logger.Int("port", cfg.Server.Port))
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("API server stopped", logger.Error(err))
					cancel()
				}
			}()

			waitForShutdown(ctx, cancel, server, sched, a.generator, log)
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP port (overrides server.port)")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "disable cron regeneration")
	cmd.Flags().BoolVar(&initial, "generate", false, "generate once at startup")

	return cmd
}

// runWaiter is the part of sitemap.Generator shutdown waits on.
type runWaiter interface {
	Wait()
}

// waitForShutdown returns once background runs have finished, so the stores
// can be closed after it.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, server *api.Server, sched *scheduler.Scheduler, runs runWaiter, log logger.Logger) {
	// Handle system signals for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
	case <-ctx.Done():
	}
	log.Info("Shutting down...")
	cancel()

	if sched != nil {
		sched.Stop()
	}

	// Graceful server shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down server", logger.Error(err))
	}

	log.Info("Waiting for running sitemap generation")
	runs.Wait()
	log.Info("Server shut down gracefully")
}
