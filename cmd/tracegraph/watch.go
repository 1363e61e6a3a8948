package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/tracegraph/config"
	"github.com/c360studio/tracegraph/publish"
	"github.com/c360studio/tracegraph/source"
	"github.com/c360studio/tracegraph/telemetry"
)

func watchCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the graph on source changes",
		Long: `Watch the repository and rebuild the graph whenever requirement
documents, code, tests, or result logs change. Rebuilds are full: the
change batch is a trigger, not a delta. With telemetry configured, build
health is exposed on /metrics; with publish configured, every rebuild is
pushed to NATS.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := env.loadConfig()
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg)
		},
	}
	return cmd
}

func runWatch(parent context.Context, cfg *config.Config) error {
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var collector *telemetry.Collector
	if cfg.Telemetry.Addr != "" {
		collector = telemetry.NewCollector()
		go func() {
			if err := collector.Serve(ctx, cfg.Telemetry.Addr, logger); err != nil {
				logger.Error("telemetry server failed", slog.String("error", err.Error()))
			}
		}()
	}

	var publisher *publish.Publisher
	if cfg.Publish.URL != "" {
		var err error
		publisher, err = publish.Connect(cfg.Publish.URL, cfg.Publish.SubjectPrefix, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}

	rebuild := func() {
		start := time.Now()
		g, diags, err := assemble(cfg)
		if err != nil {
			logger.Error("rebuild failed", slog.String("error", err.Error()))
			return
		}
		printDiagnostics(diags)
		logger.Info("rebuild complete",
			slog.Int("nodes", g.Len()),
			slog.Int("diagnostics", len(diags)),
			slog.Duration("elapsed", time.Since(start)))

		if collector != nil {
			collector.ObserveBuild(g, diags, time.Since(start))
		}
		if publisher != nil {
			if err := publisher.PublishGraph(ctx, g); err != nil {
				logger.Error("publish failed", slog.String("error", err.Error()))
			}
		}
	}

	watcher, err := source.NewWatcher(cfg.Watch, cfg.Repo.Path, logger)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Stop()

	// Initial build before the first change arrives.
	rebuild()

	for {
		select {
		case <-ctx.Done():
			return nil
		case batch, ok := <-watcher.Batches():
			if !ok {
				return nil
			}
			logger.Debug("change batch", slog.Int("paths", len(batch.Paths)))
			rebuild()
		}
	}
}
