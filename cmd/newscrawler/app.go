package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/config"
	"github.com/nao1215/newscrawler/internal/crawler"
	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/dedup"
	"github.com/nao1215/newscrawler/internal/extractor"
	"github.com/nao1215/newscrawler/internal/log"
	"github.com/nao1215/newscrawler/internal/oracle"
	"github.com/nao1215/newscrawler/internal/pipeline"
)

// flagValue returns the string value of a local or inherited flag.
func flagValue(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// flagChanged reports whether a local or inherited flag was set explicitly.
func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// loadConfig builds the configuration from file, environment and global flags.
// It does not validate; each command validates what it needs.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagValue(cmd, "config"))
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	cfg.Verbose = flagValue(cmd, "verbose") == "true"
	if flagChanged(cmd, "log-format") {
		cfg.LogFormat = flagValue(cmd, "log-format")
	}

	return cfg, nil
}

// setupLogger creates the secure logger for cfg and installs it as default.
func setupLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	logger, err := log.NewLogger(w, cfg.LogFormat, cfg.Verbose)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	slog.SetDefault(logger)
	return logger, nil
}

// openStore validates the database section and opens the store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	opts, err := cfg.DatabaseOptions()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	store, err := database.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open article store: %w", err)
	}

	logger.Debug("article store opened", "driver", store.Driver(), "dir", opts.Dir, "host", opts.Host)
	return store, nil
}

// newOrchestrator wires every collaborator of a crawl cycle.
// The store serves as source registry, article store and cycle history.
func newOrchestrator(cfg *config.Config, store *database.Store, logger *slog.Logger) (*pipeline.Orchestrator, error) {
	fetcher := crawler.NewFetcher(
		crawler.WithTimeout(cfg.Crawl.FetchTimeout),
		crawler.WithUserAgent(cfg.Crawl.UserAgent),
		crawler.WithMaxBodySize(cfg.Crawl.MaxBodySize),
		crawler.WithRetryPolicy(cfg.FetchPolicy()),
		crawler.WithLogger(logger),
	)

	client, err := oracle.NewClient(cfg.Oracle.APIKey,
		oracle.WithBaseURL(cfg.Oracle.BaseURL),
		oracle.WithModel(cfg.Oracle.Model),
		oracle.WithTimeout(cfg.Oracle.Timeout),
		oracle.WithMaxPageChars(cfg.Oracle.MaxPageChars),
		oracle.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create oracle client: %w", err)
	}

	ext := extractor.New(client,
		extractor.WithAttempts(cfg.Retry.ExtractionAttempts),
		extractor.WithBackoffUnit(cfg.Retry.ExtractionBackoffUnit),
		extractor.WithLogger(logger),
	)

	dd := dedup.New(store,
		dedup.WithBatchSize(cfg.Crawl.DedupBatchSize),
		dedup.WithLogger(logger),
	)

	logger.Info("crawler configured",
		"model", client.Model(),
		"driver", store.Driver(),
		"pacing", cfg.Crawl.Pacing,
		"fetch_retries", cfg.Retry.FetchMaxRetries,
		"extraction_attempts", cfg.Retry.ExtractionAttempts,
	)

	return pipeline.NewOrchestrator(store,
		pipeline.Collaborators{
			Fetcher:   fetcher,
			Oracle:    client,
			Dedup:     dd,
			Extractor: ext,
			Store:     store,
		},
		pipeline.WithHistory(store),
		pipeline.WithCyclePacing(cfg.Crawl.Pacing),
		pipeline.WithOrchestratorLogger(logger),
	), nil
}

// openOutput returns the destination for a report: stdout when path is
// empty, otherwise a new file with owner-only permissions.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
