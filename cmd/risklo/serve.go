package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"risklo/internal/api"
	"risklo/internal/events"
	"risklo/internal/observability"
	"risklo/internal/orchestrator"
	"risklo/internal/scheduler"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, re-analysis watcher and scheduled summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			m := observability.NewMetrics(observability.DefaultNamespace)
			store, closeStore, err := openStore(ctx, cfg.Storage, m)
			if err != nil {
				return err
			}
			defer closeStore()

			provider, closeProvider, err := newProvider(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeProvider()

			results := events.NewSignal[orchestrator.ResultEvent]("results", 64)
			reanalyze := events.NewSignal[orchestrator.ReanalyzeRequest]("reanalyze", 4)
			defer results.Close()
			defer reanalyze.Close()
			for _, sig := range []struct {
				name    string
				dropped func() uint64
			}{
				{results.Name(), results.Dropped},
				{reanalyze.Name(), reanalyze.Dropped},
			} {
				if err := m.TrackDropped(sig.name, sig.dropped); err != nil {
					return err
				}
			}

			orch := orchestrator.New(orchestrator.Options{
				Provider:    provider,
				Store:       store,
				Metrics:     m,
				Results:     results,
				Concurrency: cfg.Bulk.Concurrency,
				Logger:      logger,
			})
			server := api.New(api.Options{
				Orchestrator: orch,
				Provider:     provider,
				Store:        store,
				Metrics:      m,
				Reanalyze:    reanalyze,
				Results:      results,
				Logger:       logger,
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
			})

			var sched *scheduler.Scheduler
			if cfg.Schedule.Cron != "" {
				sched = scheduler.New(scheduler.Options{
					Runner:    orch,
					OutputDir: cfg.Schedule.OutputDir,
					Metrics:   m,
					Logger:    logger,
				})
				if err := sched.Register(cfg.Schedule.Cron); err != nil {
					return err
				}
				sched.Start(ctx)
				defer sched.Stop()
			}

			// Shutdown on SIGINT/SIGTERM; a second signal or a stuck
			// shutdown forces exit.
			done := make(chan struct{})
			defer close(done)
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case sig := <-sigCh:
					logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
					cancel()
				case <-done:
					return
				}
				select {
				case sig := <-sigCh:
					logger.Warn().Str("signal", sig.String()).Msg("forcing immediate shutdown")
					os.Exit(1)
				case <-time.After(cfg.Server.ShutdownTimeout + 5*time.Second):
					logger.Error().Msg("graceful shutdown timed out, forcing exit")
					os.Exit(1)
				case <-done:
				}
			}()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.ListenAndServe(gctx, api.ServerConfig{
					Addr:            cfg.Server.Addr,
					ReadTimeout:     cfg.Server.ReadTimeout,
					WriteTimeout:    cfg.Server.WriteTimeout,
					ShutdownTimeout: cfg.Server.ShutdownTimeout,
				})
			})
			g.Go(func() error {
				err := orch.Watch(gctx, reanalyze)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})

			logger.Info().
				Str("version", version).
				Str("storage", cfg.Storage.Driver).
				Str("sheets", cfg.Sheets.Source).
				Str("schedule", cfg.Schedule.Cron).
				Msg("risklo started")

			err = g.Wait()
			logger.Info().
				Uint64("results_dropped", results.Dropped()).
				Uint64("reanalyze_dropped", reanalyze.Dropped()).
				Msg("shutdown complete")
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
