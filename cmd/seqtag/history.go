package main

import (
	"context"
	"fmt"
	"io"

	"github.com/gomlx/go-seqtag/internal/config"
	"github.com/gomlx/go-seqtag/internal/runlog"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `List the training, evaluation and cross-validation runs recorded in the history database,
most recent first.

Examples:
  seqtag history
  seqtag history --limit 5 --history-db /data/seqtag/history.db`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd.Context(), cfg, historyLimit, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs listed, 0 for all")
}

func runHistory(ctx context.Context, c *config.Config, limit int, out io.Writer) error {
	store, err := runlog.Open(ctx, c.HistoryDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err = fmt.Fprintf(out, "No runs recorded in %q.\n", c.HistoryDB)
		return err
	}
	_, err = fmt.Fprintln(out, renderRuns(runs))
	return err
}
