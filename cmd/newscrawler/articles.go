package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/database"
	"github.com/nao1215/newscrawler/internal/report"
)

// NewArticlesCmd creates the articles command.
func NewArticlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List recently stored articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := formatWriter(cmd)
			if err != nil {
				return err
			}
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}

			return withStore(cmd, func(store *database.Store) error {
				articles, err := store.RecentArticles(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if _, err := w.WriteArticles(articles); err != nil {
					return err
				}

				total, err := store.CountArticles(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d stored articles\n", len(articles), total)
				return nil
			})
		},
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format: text, json or markdown")
	cmd.Flags().IntP("limit", "n", defaultListLimit, "Maximum number of articles to list")
	return cmd
}
