package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/platformbuilds/grafana-relabel/internal/config"
	"github.com/platformbuilds/grafana-relabel/internal/models"
	"github.com/platformbuilds/grafana-relabel/internal/relabel"
	"github.com/platformbuilds/grafana-relabel/internal/services"
	"github.com/platformbuilds/grafana-relabel/pkg/logger"
)

const version = "v1.2.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "grafana-relabel",
		Version: version,
		Short:   "Bulk-rewrite PromQL label matchers across Grafana dashboards",
		Long: `grafana-relabel walks every dashboard in a Grafana folder, finds query
expressions containing an exact label/value matcher and rewrites them to a
new label/value pair, preserving operator and quote style. Every change is
recorded in a plain-text change log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd)
		},
	}

	fl := cmd.Flags()
	fl.String("grafana-url", "", "Grafana base URL")
	fl.String("api-key", "", "Grafana API key (bearer token)")
	fl.String("username", "", "Grafana basic-auth username (used when no API key is set)")
	fl.String("password", "", "Grafana basic-auth password")
	fl.String("folder", "", "dashboard folder to process")
	fl.String("old-label", "", "label name to replace")
	fl.String("old-value", "", "label value to replace")
	fl.String("new-label", "", "replacement label name")
	fl.String("new-value", "", "replacement label value")
	fl.String("log-file", "", "change log destination (default changes_log.txt)")
	fl.Bool("dry-run", false, "plan and log changes without saving dashboards")
	fl.String("log-level", "", "log level: debug, info, warn or error")
	return cmd
}

func run(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("starting grafana-relabel",
		"version", version,
		"grafana", cfg.Grafana.URL,
		"folder", cfg.Rewrite.Folder,
		"dryRun", cfg.DryRun,
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Warn("shutdown signal received, cancelling run")
		cancel()
	}()

	grafana := services.NewGrafanaService(cfg.Grafana, log)
	svc := relabel.NewService(grafana, relabel.Options{
		Folder: cfg.Rewrite.Folder,
		Request: models.RewriteRequest{
			OldLabel: cfg.Rewrite.OldLabel,
			OldValue: cfg.Rewrite.OldValue,
			NewLabel: cfg.Rewrite.NewLabel,
			NewValue: cfg.Rewrite.NewValue,
		},
		LogPath: cfg.ChangeLog.Path,
		DryRun:  cfg.DryRun,
	}, log)

	return svc.Run(ctx)
}
