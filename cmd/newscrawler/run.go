package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/report"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one crawl cycle now and print its report",
		Long: `Run performs a single crawl cycle over all active sources and exits.

Each source is processed in registry order: the homepage is fetched, the
language model lists the article links, links already in the article store
are skipped, and each new article is fetched, judged, summarized and tagged.
A failing source or article never stops the cycle.

Examples:
  # Crawl once and print a text summary
  newscrawler run

  # Write a Markdown report with an outcome chart
  newscrawler run --format markdown --output reports/today.md

  # Machine-readable output
  newscrawler run --format json`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText),
		"Report format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")

	return cmd
}

// runRunCmd executes the run command.
func runRunCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	format, err := report.ParseFormat(flagValue(cmd, "format"))
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // Best effort cleanup

	orchestrator, err := newOrchestrator(cfg, store, logger)
	if err != nil {
		return err
	}

	cycle, runErr := orchestrator.RunCycle(ctx)
	if cycle != nil {
		if err := writeCycleReport(cmd, format, flagValue(cmd, "output"), cycle); err != nil {
			return err
		}
	}

	if errors.Is(runErr, context.Canceled) {
		return fmt.Errorf("crawl cycle interrupted: %w", runErr)
	}
	return runErr
}

// writeCycleReport writes the cycle report to stdout or a file.
func writeCycleReport(cmd *cobra.Command, format report.Format, path string, cycle *model.CycleReport) (err error) {
	out, closeOut, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close report: %w", cerr)
		}
	}()

	w, err := report.New(format, out, getVersion())
	if err != nil {
		return err
	}
	if _, err := w.Write(cycle); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
