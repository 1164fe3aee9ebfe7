package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/report"
)

// defaultListLimit is the number of rows listed by history and articles.
const defaultListLimit = 20

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [cycle-id]",
		Short: "Show past crawl cycles",
		Long: `History lists recorded crawl cycles, newest first, with their totals.
Given a cycle ID it prints the full report of that cycle.

Examples:
  newscrawler history
  newscrawler history --limit 5 --format json
  newscrawler history 7f0c1d9e-2b7a-4c55-9a1e-3f0f2d6c8b11 --format markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format: text, json or markdown")
	cmd.Flags().IntP("limit", "n", defaultListLimit, "Maximum number of cycles to list")
	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	w, err := formatWriter(cmd)
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	return withStore(cmd, func(store *database.Store) error {
		if len(args) == 1 {
			cycle, err := store.GetCycle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = w.Write(cycle)
			return err
		}

		records, err := store.ListCycles(cmd.Context(), limit)
		if err != nil {
			return err
		}
		_, err = w.WriteHistory(records)
		return err
	})
}
