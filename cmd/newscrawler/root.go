package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for newscrawler.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newscrawler",
		Short: "Daily news crawler with language-model extraction",
		Long: `newscrawler visits a registry of news sites on a daily schedule.

For every active source it fetches the homepage, asks a language model which
links are news articles, skips articles that are already stored, and asks the
model to judge, summarize and tag each new article. Relevant articles are
written to the article store (SQLite, MySQL or PostgreSQL).

Configuration is read from newscrawler.yaml, .env.dev/.env files and the
environment (DASHSCOPE_API_KEY, DB_TYPE, DB_HOST, ...).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose (debug) logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: newscrawler.yaml in current or XDG config directory)")
	cmd.PersistentFlags().String("log-format", "",
		"Log format: text or json (overrides log_format in the configuration file)")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSourcesCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewArticlesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
