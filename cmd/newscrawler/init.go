package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/newscrawler/internal/config"
)

//go:embed templates/newscrawler.yaml templates/sources.yaml
var templates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a commented configuration file",
		Long: `Init writes a newscrawler.yaml configuration file documenting every option,
and optionally a sources.yaml file to import with "sources add --file".

Secrets such as the oracle API key and the database password are better
kept in the environment or a .env file than in the configuration file.

Examples:
  # Create newscrawler.yaml in the current directory
  newscrawler init

  # Also create an example source import file
  newscrawler init --sources

  # Write to a specific path, overwriting an existing file
  newscrawler init -o /etc/newscrawler/newscrawler.yaml -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")
	cmd.Flags().Bool("sources", false,
		"Also write sources.yaml next to the configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	withSources, err := cmd.Flags().GetBool("sources")
	if err != nil {
		return err
	}

	if err := writeTemplate("templates/newscrawler.yaml", outputPath, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)

	if withSources {
		sourcesPath := filepath.Join(filepath.Dir(outputPath), "sources.yaml")
		if err := writeTemplate("templates/sources.yaml", sourcesPath, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created source file: %s\n", sourcesPath)
		fmt.Fprintf(cmd.OutOrStdout(), "Import it with: newscrawler sources add --file %s\n", sourcesPath)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nSet DASHSCOPE_API_KEY (and DB_* for MySQL or PostgreSQL) before running:")
	fmt.Fprintln(cmd.OutOrStdout(), "  newscrawler run      # one cycle now")
	fmt.Fprintln(cmd.OutOrStdout(), "  newscrawler serve    # daily cycles")

	return nil
}

// writeTemplate copies an embedded template to path.
func writeTemplate(name, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", path)
		}
	}

	content, err := templates.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
