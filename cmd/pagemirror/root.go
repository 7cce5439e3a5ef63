package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagemirror.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagemirror",
		Short: "Download a web page with its same-origin resources for offline use",
		Long: `Pagemirror downloads a web page, rewrites its same-origin image,
stylesheet, and script references to local paths, and saves the page
together with those resources so it can be opened offline.

Resources hosted on other origins are left untouched and keep pointing
at their original URLs.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewMirrorCmd())
	cmd.AddCommand(NewHistoryCmd())
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
