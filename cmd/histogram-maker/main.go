package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keagraha/Cluster-Research-Stuff/internal/catalog"
	"github.com/keagraha/Cluster-Research-Stuff/internal/charts"
	"github.com/keagraha/Cluster-Research-Stuff/internal/config"
	"github.com/keagraha/Cluster-Research-Stuff/internal/logger"
	"github.com/keagraha/Cluster-Research-Stuff/internal/partition"
	"github.com/keagraha/Cluster-Research-Stuff/internal/report"
	"github.com/keagraha/Cluster-Research-Stuff/internal/telegram"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Fatal("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "histogram-maker",
		Short: "Partition a galaxy-cluster catalog and plot temperature-ratio histograms",
		Long: `histogram-maker splits a cluster catalog by redshift, richness and the
core/r500 temperature ratio, prints the number of clusters in every bucket and
renders labelled histograms of the ratio for each combination of buckets.

Giving --redshift-split-low and --redshift-split-high (or the richness
equivalents) switches that axis from two buckets to three.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("failed to validate config: %w", err)
			}

			logger.Init(cfg.Logging.Level, cfg.Logging.Format)
			defer logger.Sync()
			if configPath != "" {
				logger.Info("Configuration loaded from %s", configPath)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	flags.String("catalog", "", "Path to the cluster catalog (csv, fits or sqlite)")
	flags.String("catalog-format", "", "Catalog format; detected from the extension when empty")
	flags.Float64("redshift-split", partition.DefaultRedshiftSplit, "Redshift cut for a two-way split")
	flags.Float64("redshift-split-low", partition.DefaultRedshiftSplitLow, "Lower redshift cut for a three-way split")
	flags.Float64("redshift-split-high", partition.DefaultRedshiftSplitHigh, "Upper redshift cut for a three-way split")
	flags.Float64("richness-split", partition.DefaultRichnessSplit, "Richness cut for a two-way split")
	flags.Float64("richness-split-low", partition.DefaultRichnessSplitLow, "Lower richness cut for a three-way split")
	flags.Float64("richness-split-high", partition.DefaultRichnessSplitHigh, "Upper richness cut for a three-way split")
	flags.Float64("ratio-split", partition.DefaultRatioSplit, "Core/r500 temperature ratio separating cool cores (0.7 when any axis is three-way)")
	flags.Bool("render-charts", true, "Render histograms")
	flags.String("output-dir", "./charts", "Directory for rendered histograms")
	flags.String("report-format", report.FormatText, "Summary format: text, json or yaml")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	return cmd
}

// run executes one analysis: load, partition, report and optionally plot.
func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	thresholds, err := cfg.Splits.Thresholds()
	if err != nil {
		return err
	}

	logger.Info("Loading catalog %s", cfg.Catalog.Path)
	cat, err := catalog.Load(ctx, catalog.Source{
		Path:   cfg.Catalog.Path,
		Format: cfg.Catalog.Format,
		Table:  cfg.Catalog.Table,
		HDU:    cfg.Catalog.HDU,
		Columns: catalog.Columns{
			Redshift:        cfg.Catalog.Columns.Redshift,
			Richness:        cfg.Catalog.Columns.Richness,
			CoreTemperature: cfg.Catalog.Columns.CoreTemperature,
			R500Temperature: cfg.Catalog.Columns.R500Temperature,
		},
	})
	if err != nil {
		return err
	}
	logger.Info("Loaded %d clusters", cat.Len())

	res, anomalies, err := partition.Compute(cat, thresholds)
	if err != nil {
		return fmt.Errorf("failed to partition catalog: %w", err)
	}
	if len(anomalies) > 0 {
		logger.Warn("%d clusters have an undefined temperature ratio and are left out of the ratio buckets", len(anomalies))
		for _, a := range anomalies {
			c := cat.Row(a.Row)
			logger.Debug("%v (core_temperature=%g, r500_core_cropped_temperature=%g)",
				a, c.CoreTemperature, c.R500CoreCroppedTemperature)
		}
	}

	bins := 0
	if cfg.Report.Distribution {
		bins = cfg.Charts.Bins
	}
	r, err := report.New(cfg.Catalog.Path, res, bins)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	if cfg.Charts.RenderCharts {
		plan, err := charts.Plan(res)
		if err != nil {
			return fmt.Errorf("failed to plan charts: %w", err)
		}
		renderer := charts.NewPlotRenderer(cfg.Charts.OutputDir, cfg.Charts.Format, cfg.Charts.Bins,
			cfg.Charts.WidthInches, cfg.Charts.HeightInches)
		paths, err := charts.RenderAll(ctx, renderer, plan, cfg.Charts.Workers)
		if err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}
		r.Charts = paths
		logger.Info("Rendered %d charts to %s", len(paths), cfg.Charts.OutputDir)
	}

	if err := report.Write(out, r, report.Options{Format: cfg.Report.Format, Style: cfg.Report.Style}); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.Telegram.Enabled {
		if err := notify(ctx, cfg.Telegram, r); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// The report is already written; a failed notification is not fatal.
			logger.Warn("Failed to send report to Telegram: %v", err)
		}
	}

	return nil
}

func notify(ctx context.Context, cfg config.TelegramConfig, r report.Report) error {
	client, err := telegram.NewClient(cfg.BotToken, cfg.ChatID, cfg.MaxRetries, cfg.RetryDelayBase)
	if err != nil {
		return err
	}
	if err := client.SendReport(ctx, r); err != nil {
		return err
	}
	if cfg.SendCharts && len(r.Charts) > 0 {
		if err := client.SendCharts(ctx, r.Charts); err != nil {
			return err
		}
	}
	logger.Info("Report sent to Telegram")
	return nil
}
