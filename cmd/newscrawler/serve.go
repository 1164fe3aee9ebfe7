package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/newscrawler/internal/config"
	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/report"
	"github.com/nao1215/newscrawler/internal/scheduler"
)

// reportQueueSize bounds the finished reports waiting to be written.
const reportQueueSize = 4

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run crawl cycles every day until interrupted",
		Long: `Serve runs a crawl cycle once a day at the configured local time
(04:00 by default) and, unless disabled, once immediately at startup.

A trigger that fires while a cycle is still running is skipped. On SIGINT or
SIGTERM no new cycle starts; a running cycle may finish within the shutdown
grace period and is cancelled afterwards.

Examples:
  # Crawl at 04:00 every day and once right now
  newscrawler serve

  # Crawl at 06:30 Hong Kong time without an initial run
  newscrawler serve --hour 6 --minute 30 --timezone Asia/Hong_Kong --run-immediately=false

  # Keep a Markdown report of every cycle
  newscrawler serve --report-dir reports --report-format markdown`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().Int("hour", config.DefaultHour, "Hour of the daily trigger (0-23)")
	cmd.Flags().Int("minute", config.DefaultMinute, "Minute of the daily trigger (0-59)")
	cmd.Flags().String("timezone", "", "IANA time zone of the trigger time (default: local)")
	cmd.Flags().Bool("run-immediately", true, "Run one cycle at startup")
	cmd.Flags().Duration("shutdown-grace", config.DefaultShutdownGrace,
		"How long a running cycle may continue after a stop signal")
	cmd.Flags().String("report-dir", "", "Write a report file for every cycle into this directory")
	cmd.Flags().String("report-format", string(report.FormatMarkdown),
		"Format of the per-cycle report files: text, json or markdown")

	return cmd
}

// applyServeFlags overrides the schedule section with explicitly set flags.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if flags.Changed("hour") {
		v, err := flags.GetInt("hour")
		if err != nil {
			return err
		}
		cfg.Schedule.Hour = v
	}
	if flags.Changed("minute") {
		v, err := flags.GetInt("minute")
		if err != nil {
			return err
		}
		cfg.Schedule.Minute = v
	}
	if flags.Changed("timezone") {
		v, err := flags.GetString("timezone")
		if err != nil {
			return err
		}
		cfg.Schedule.Timezone = v
	}
	if flags.Changed("run-immediately") {
		v, err := flags.GetBool("run-immediately")
		if err != nil {
			return err
		}
		cfg.Schedule.RunImmediately = v
	}
	if flags.Changed("shutdown-grace") {
		v, err := flags.GetDuration("shutdown-grace")
		if err != nil {
			return err
		}
		cfg.Schedule.ShutdownGrace = v
	}
	return nil
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	reportDir := flagValue(cmd, "report-dir")
	reportFormat, err := report.ParseFormat(flagValue(cmd, "report-format"))
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
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

	reports := make(chan *model.CycleReport, reportQueueSize)
	opts := []scheduler.Option{
		scheduler.WithTime(cfg.Schedule.Hour, cfg.Schedule.Minute),
		scheduler.WithRunImmediately(cfg.Schedule.RunImmediately),
		scheduler.WithLocation(loc),
		scheduler.WithLogger(logger),
	}
	if reportDir != "" {
		opts = append(opts, scheduler.WithReportHook(func(r *model.CycleReport) {
			select {
			case reports <- r:
			default:
				logger.Warn("report queue full, report not written", "cycle", r.ID)
			}
		}))
	}

	sched, err := scheduler.New(orchestrator, opts...)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger.Info("serving",
		"schedule", sched.Spec(),
		"timezone", loc.String(),
		"next_run", sched.NextRun(time.Now()).Format(time.RFC3339),
		"run_immediately", cfg.Schedule.RunImmediately,
		"shutdown_grace", cfg.Schedule.ShutdownGrace,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(reports)
		return sched.Run(gctx, cfg.Schedule.ShutdownGrace)
	})

	g.Go(func() error {
		for r := range reports {
			path, err := saveCycleReport(reportDir, reportFormat, r)
			if err != nil {
				logger.Error("failed to write cycle report", "cycle", r.ID, "error", err)
				continue
			}
			logger.Info("cycle report written", "cycle", r.ID, "path", path)
		}
		return nil
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// saveCycleReport writes one report file into dir and returns its path.
func saveCycleReport(dir string, format report.Format, cycle *model.CycleReport) (path string, err error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path = filepath.Join(dir, reportFileName(format, cycle))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // Path is built from the report directory
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w, err := report.New(format, f, getVersion())
	if err != nil {
		return "", err
	}
	if _, err := w.Write(cycle); err != nil {
		return "", err
	}
	return path, nil
}

// reportExtensions maps report formats to file extensions.
var reportExtensions = map[report.Format]string{
	report.FormatText:     "txt",
	report.FormatJSON:     "json",
	report.FormatMarkdown: "md",
}

// reportFileName names a report file after its start time and cycle ID.
func reportFileName(format report.Format, cycle *model.CycleReport) string {
	ext, ok := reportExtensions[format]
	if !ok {
		ext = "txt"
	}

	id := cycle.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("cycle-%s-%s.%s", cycle.StartedAt.UTC().Format("20060102-150405"), id, ext)
}
