package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyLimit int

// historyCmd lists recent journal entries.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent changes recorded in the journal",
	Long:  `Lists the most recent changes applied to the output tree, newest first. Requires database.enabled.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of entries")
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx, cmd, runtimeOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.journal == nil {
		return errors.New("journal is disabled, set DATABASE_ENABLED=true")
	}

	entries, err := rt.journal.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	for _, e := range entries {
		rt.logger.Info(e.Action,
			zap.Time("at", e.At),
			zap.String("session", e.Session),
			zap.String("tier", e.Tier),
			zap.String("rel", e.Rel),
			zap.String("target", e.Target),
			zap.String("reason", e.Reason),
		)
	}
	rt.logger.Info("History listed", zap.Int("count", len(entries)))
	return nil
}
