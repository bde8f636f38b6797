package preparecmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/sceneprep/internal/batch"
	"github.com/lehigh-university-libraries/sceneprep/internal/config"
	"github.com/lehigh-university-libraries/sceneprep/internal/index"
	"github.com/lehigh-university-libraries/sceneprep/internal/report"
)

func executeBatch(cmd *cobra.Command, configPath, indexPath, reportPath string, concurrency int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if indexPath != "" {
		cfg.IndexPath = indexPath
	}
	if reportPath != "" {
		cfg.ReportPath = reportPath
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	out := cmd.OutOrStdout()
	summary, err := batch.Run(cmd.Context(), cfg, out)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	if cfg.IndexPath != "" {
		rows, err := index.WriteFrames(cfg.IndexPath, summary.Manifests())
		if err != nil {
			return fmt.Errorf("failed to write frame index: %w", err)
		}
		slog.Info("Wrote frame index", "path", cfg.IndexPath, "rows", rows)
	}

	if cfg.ReportPath != "" {
		if err := report.SaveYAML(cfg.ReportPath, report.New(cfg, summary, time.Now())); err != nil {
			return err
		}
		slog.Info("Wrote run report", "path", cfg.ReportPath)
	}

	printSummary(cmd, summary)

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d scenes failed", summary.Failed, len(summary.Results))
	}
	return nil
}

func printSummary(cmd *cobra.Command, summary *batch.Summary) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBatch complete in %s\n", summary.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Scenes prepared: %d\n", summary.Succeeded)
	fmt.Fprintf(out, "  Scenes failed:   %d\n", summary.Failed)
	fmt.Fprintf(out, "  Frames kept:     %d\n", summary.FramesKept)
	fmt.Fprintf(out, "  Frames skipped:  %d\n", summary.FramesSkipped)

	for _, r := range summary.Results {
		if r.Err != nil {
			fmt.Fprintf(out, "  ❌ %s: %v\n", r.Scene, r.Err)
		}
	}
}
