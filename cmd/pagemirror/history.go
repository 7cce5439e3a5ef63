package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"pagemirror/internal/config"
	"pagemirror/internal/database"
	"pagemirror/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past mirror runs",
		Long: `History lists the mirror runs recorded in the local history database,
newest first. Use --host to restrict the listing to pages from one host,
and --show with a run ID to print the full report of a single run.`,
		Example: `  pagemirror history
  pagemirror history --host example.com --limit 10
  pagemirror history --show 42`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("host", "H", "", "Only list runs for this host")
	cmd.Flags().IntP("limit", "l", 20, "Maximum number of runs to list (0 for no limit)")
	cmd.Flags().Int64P("show", "s", 0, "Print the full report of the run with this ID")

	return cmd
}

// runHistoryCmd is the entry point for the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("failed to get host flag: %w", err)
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return fmt.Errorf("failed to get show flag: %w", err)
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no history database found (run 'pagemirror mirror' first): %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only usage, close errors are not actionable

	if showID != 0 {
		return showRun(cmd, db, showID)
	}
	return listRuns(cmd, db, host, limit)
}

// showRun prints the full stored report of a single run.
func showRun(cmd *cobra.Command, db *database.HistoryDB, id int64) error {
	rep, err := db.GetRunByID(cmd.Context(), id)
	if err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("run %d not found", id)
	}

	writer := report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(true))
	if _, err := writer.Write(rep); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// listRuns prints a table of recorded runs, newest first.
func listRuns(cmd *cobra.Command, db *database.HistoryDB, host string, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), host, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No mirror runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSTATUS\tRESOURCES\tBYTES\tURL")
	for _, run := range runs {
		status := fmt.Sprintf("%d", run.StatusCode)
		if run.Error != "" {
			status = "FAILED"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Local().Format(time.DateTime),
			status,
			run.ResourceCount,
			run.BytesWritten,
			run.PageURL,
		)
	}
	return w.Flush()
}
