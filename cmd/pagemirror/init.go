package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pagemirror/internal/config"
)

//go:embed templates/pagemirror.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a configuration file template",
		Long: `Init writes a commented .pagemirror configuration file template to the
current directory. Edit it to add host-specific cookies, headers, or
User-Agent overrides.`,
		Example: `  pagemirror init
  pagemirror init -o ~/.pagemirror
  pagemirror init --force`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path to write the configuration file")
	cmd.Flags().BoolP("force", "f", false, "Overwrite the configuration file if it already exists")

	return cmd
}

// runInitCmd is the entry point for the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return fmt.Errorf("failed to get force flag: %w", err)
	}

	if !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", output)
		}
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(output, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created: %s\n", output)
	return nil
}
