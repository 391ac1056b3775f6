package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vpnda/billing-sync/pkg/models"
	"github.com/vpnda/billing-sync/pkg/services"
	"github.com/vpnda/billing-sync/pkg/utils"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded fetch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("run history is disabled, pass --db")
			}
			database, err := openDatabase(opts.dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			runs, err := services.NewFetchRecorder(database).History(source, limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, runs, func(w io.Writer) error {
				printRuns(w, runs)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "Only show runs for this source (hubspot or xero)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show, 0 for all")

	cmd.AddCommand(newHistoryPruneCmd(opts))
	return cmd
}

func newHistoryPruneCmd(opts *rootOptions) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old fetch runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("run history is disabled, pass --db")
			}
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			database, err := openDatabase(opts.dbPath)
			if err != nil {
				return err
			}
			defer database.Close()

			removed, err := database.PruneRuns(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			log.Info().Int64("removed", removed).Msg("Fetch runs pruned")
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Delete runs that started longer ago than this")
	return cmd
}

func printRuns(w io.Writer, runs []*models.FetchRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No fetch runs recorded")
		return
	}

	fmt.Fprintf(w, "Found %d runs:\n\n", len(runs))
	fmt.Fprintf(w, "%-8s %-8s %-20s %9s %-10s %7s  %s\n", "ID", "Source", "Started", "Duration", "Status", "Records", "Error")
	rule(w, 100)
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%-8s %-8s %-20s %9s %-10s %7d  %s\n",
			utils.Truncate(run.ID, 8),
			run.Source,
			run.StartedAt.Local().Format(time.DateTime),
			duration,
			utils.Humanize(string(run.Status)),
			run.RecordCount,
			utils.Truncate(run.Error, 40))
	}
}
