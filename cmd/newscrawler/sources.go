package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/config"
	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/model"
	"github.com/nao1215/newscrawler/internal/report"
)

// NewSourcesCmd creates the sources command group.
func NewSourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage the registry of news sources",
		Long: `Sources manages the news sites visited by every crawl cycle.

A source is identified by its URL and carries a display name, which is
stored with every article, and a language code (en, zh-hk or zh) that
selects the extraction prompt and tag vocabulary.`,
	}

	cmd.AddCommand(newSourcesListCmd())
	cmd.AddCommand(newSourcesAddCmd())
	cmd.AddCommand(newSourcesSetActiveCmd("disable", false))
	cmd.AddCommand(newSourcesSetActiveCmd("enable", true))

	return cmd
}

// withStore loads the configuration, opens the store and runs fn.
func withStore(cmd *cobra.Command, fn func(store *database.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}

	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // Best effort cleanup

	return fn(store)
}

// formatWriter creates the report writer selected by the --format flag.
func formatWriter(cmd *cobra.Command) (report.Writer, error) {
	format, err := report.ParseFormat(flagValue(cmd, "format"))
	if err != nil {
		return nil, err
	}
	return report.New(format, cmd.OutOrStdout(), getVersion())
}

func newSourcesListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := formatWriter(cmd)
			if err != nil {
				return err
			}
			activeOnly, err := cmd.Flags().GetBool("active")
			if err != nil {
				return err
			}

			return withStore(cmd, func(store *database.Store) error {
				var sources []model.Source
				if activeOnly {
					sources, err = store.ListActiveSources(cmd.Context())
				} else {
					sources, err = store.ListSources(cmd.Context())
				}
				if err != nil {
					return err
				}
				_, err = w.WriteSources(sources)
				return err
			})
		},
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format: text, json or markdown")
	cmd.Flags().Bool("active", false, "List only active sources")
	return cmd
}

func newSourcesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [url]",
		Short: "Register a source, or every source of a YAML file",
		Long: `Add registers a new source. The URL is the page that lists article links,
usually the homepage or a news section.

Examples:
  newscrawler sources add https://www.info.gov.hk/gia/general/today.htm \
      --name "HKSAR Government" --language zh-hk

  # Import many sources at once
  newscrawler sources add --file sources.yaml

Source file format:
  sources:
    - url: https://news.example/
      language: en
      name: Example News
      info: optional free-form note
      active: true`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSourcesAddCmd,
	}

	cmd.Flags().StringP("name", "n", "", "Display name stored with every article")
	cmd.Flags().StringP("language", "l", string(model.LanguageSimplifiedChinese),
		"Language code: "+languageCodes())
	cmd.Flags().String("info", "", "Free-form note kept with the source")
	cmd.Flags().String("file", "", "Import sources from a YAML file")
	return cmd
}

// runSourcesAddCmd executes the sources add command.
func runSourcesAddCmd(cmd *cobra.Command, args []string) error {
	sources, err := sourcesToAdd(cmd, args)
	if err != nil {
		return err
	}

	return withStore(cmd, func(store *database.Store) error {
		added := 0
		var errs []error
		for _, src := range sources {
			if err := store.AddSource(cmd.Context(), src); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", src.URL, err))
				continue
			}
			added++
			fmt.Fprintf(cmd.OutOrStdout(), "Added source: %s (%s, %s)\n", src.Name, src.Language, src.URL)
		}
		if len(sources) > 1 {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d sources added\n", added, len(sources))
		}
		return errors.Join(errs...)
	})
}

// sourcesToAdd builds the sources from either a file or the arguments.
func sourcesToAdd(cmd *cobra.Command, args []string) ([]model.Source, error) {
	file := flagValue(cmd, "file")
	if file != "" {
		if len(args) > 0 {
			return nil, errors.New("specify either a URL or --file, not both")
		}
		sf, err := config.LoadSourceFile(file)
		if err != nil {
			return nil, err
		}
		return sf.ToSources()
	}

	if len(args) == 0 {
		return nil, errors.New("source URL is required (or use --file)")
	}

	code := flagValue(cmd, "language")
	lang, ok := model.ParseLanguage(code)
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: unknown language %q (supported: %s), using %s\n", code, languageCodes(), lang)
	}

	src := model.Source{
		URL:      strings.TrimSpace(args[0]),
		Language: lang,
		Name:     strings.TrimSpace(flagValue(cmd, "name")),
		Info:     flagValue(cmd, "info"),
		Active:   true,
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	return []model.Source{src}, nil
}

// newSourcesSetActiveCmd creates the enable or disable command.
func newSourcesSetActiveCmd(use string, active bool) *cobra.Command {
	short := "Stop crawling a source"
	if active {
		short = "Resume crawling a source"
	}

	return &cobra.Command{
		Use:   use + " <url>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *database.Store) error {
				if err := store.SetSourceActive(cmd.Context(), args[0], active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Source %sd: %s\n", use, args[0])
				return nil
			})
		},
	}
}

// languageCodes lists the supported language codes, e.g. "en, zh-hk, zh".
func languageCodes() string {
	langs := model.Languages()
	codes := make([]string, len(langs))
	for i, lang := range langs {
		codes[i] = lang.String()
	}
	return strings.Join(codes, ", ")
}
