package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/RogerHowellDfE/gias-data/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded download runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Gias.HistoryDB == "" {
			return eris.New("history: no history_db configured")
		}

		limit, _ := cmd.Flags().GetInt("limit")

		hist, err := history.Open(cfg.Gias.HistoryDB)
		if err != nil {
			return eris.Wrap(err, "history: open db")
		}
		defer hist.Close() //nolint:errcheck
		if err := hist.Migrate(ctx); err != nil {
			return eris.Wrap(err, "history: migrate db")
		}

		entries, err := hist.Recent(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "history: list runs")
		}

		if len(entries) == 0 {
			fmt.Println("No runs recorded")
			return nil
		}

		for _, e := range entries {
			fmt.Printf("%s  %s  %-8s  downloaded=%d skipped=%d warnings=%d\n",
				e.StartedAt.Format("2006-01-02 15:04:05"), e.DateToken, e.Status,
				e.Downloaded, e.Skipped, len(e.Warnings))
			for _, w := range e.Warnings {
				fmt.Printf("    %s\n", w)
			}
			if e.Error != "" {
				fmt.Printf("    error: %s\n", e.Error)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	rootCmd.AddCommand(historyCmd)
}
