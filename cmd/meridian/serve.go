package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"meridian-hq/meridian/pkg/audit"
	"meridian-hq/meridian/pkg/bundle"
	"meridian-hq/meridian/pkg/server"
	"meridian-hq/meridian/pkg/telemetry/health"
	"meridian-hq/meridian/pkg/telemetry/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the enforcement server",
	Long: `Serve loads the compiled bundle, wires the generation, judge,
classifier, and extractor clients, opens the audit chain, and serves
POST /v1/enforce until interrupted. With bundle.watch enabled,
recompiled bundles are validated and hot-swapped without restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var m *metrics.Metrics
		if cfg.Metrics.Enabled {
			m = metrics.New(&metrics.Config{
				Enabled:   true,
				Namespace: cfg.Metrics.Namespace,
				Subsystem: cfg.Metrics.Subsystem,
			}, nil)
		}

		enforcer, _, writer, err := buildEnforcer(cfg, m)
		if err != nil {
			return err
		}
		defer writer.Close()

		var watcher *bundle.Watcher
		if cfg.Bundle.Watch {
			watcher, err = bundle.NewWatcher(cfg.Bundle.Path, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to start bundle watcher: %w", err)
			}
		}

		storage, err := buildAuditStorage(cfg)
		if err != nil {
			return err
		}
		defer storage.Close()

		ctx := cmd.Context()

		if cfg.Audit.VerifySchedule != "" {
			scheduler := audit.NewScheduler(storage, cfg.Audit.VerifySchedule)
			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("failed to start audit verification scheduler: %w", err)
			}
			defer scheduler.Stop()
		}

		srv := server.NewServer(&cfg.Server, enforcer, m, watcher)

		checker := health.New(0)
		checker.Register("audit", func(ctx context.Context) error {
			_, err := audit.VerifyChain(ctx, storage)
			return err
		})
		srv.SetHealthChecker(checker)

		return srv.Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
