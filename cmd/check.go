package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"variant-manager/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the check command
	fixDrift    bool
	dryRunDrift bool
	yesConfirm  bool
)

// checkCmd reports drift between the output tree and its inputs.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report drift of the output tree (+ optionally repair it)",
	Long: `Compares the output tree against main overlaid by the active channel.

Reports entries missing from the output, stale entries whose kind, size or
modification time differ, and orphans that exist only in the output.
Optionally repair the drift by deleting orphans and copying missing or stale entries.

Examples:
  # Report only
  check

  # Repair with interactive confirmation
  check --fix

  # Repair without prompting
  check --fix --yes

  # Show planned repairs without touching the output
  check --fix --dry-run`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&fixDrift, "fix", false, "Plan repair actions for the detected drift")
	checkCmd.Flags().BoolVar(&dryRunDrift, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	checkCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm repair actions (non-interactive)")

	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	rt, err := newRuntime(ctx, cmd, runtimeOptions{lock: fixDrift && !dryRunDrift})
	if err != nil {
		return err
	}
	defer rt.Close()
	l := rt.logger

	opts := reconcile.Options{
		Fix:    fixDrift,
		DryRun: dryRunDrift,
	}

	l.Info("Checking output tree", zap.String("output", rt.roots.Output))
	plan, err := rt.checker.Plan(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to check output: %w", err)
	}

	printCheckReport(l, plan)

	if !fixDrift {
		if !plan.Summary.Clean() {
			l.Info("Use --fix to repair the drift.")
		}
		return nil
	}

	if dryRunDrift {
		l.Info("Dry-run mode: No changes were made.")
		return nil
	}

	if len(plan.Actions) == 0 {
		l.Info("No actions required.")
		return nil
	}

	if !confirmDestructiveAction() {
		l.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}
	opts.Confirmed = true

	l.Info("Applying actions...")
	executed, err := rt.checker.Apply(ctx, plan, opts)
	if err != nil {
		return fmt.Errorf("failed to apply plan: %w", err)
	}

	l.Info("Successfully executed actions", zap.Int("count", executed))
	return nil
}

// printCheckReport prints a drift report using logger.
func printCheckReport(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary

	l.Info("Drift report",
		zap.Int("total_items", s.TotalItems),
		zap.Int("missing", s.Missing),
		zap.Int("stale", s.Stale),
		zap.Int("orphans", s.Orphans),
	)

	const maxShow = 10
	for i, r := range plan.Results {
		if i == maxShow {
			l.Info("Additional entries not shown", zap.Int("count", len(plan.Results)-maxShow))
			break
		}
		l.Info("Drifted entry",
			zap.String("status", string(r.Status())),
			zap.String("rel", r.Rel),
			zap.Stringer("winner", r.Winner),
			zap.Strings("mismatch", r.Mismatch),
		)
	}

	if len(plan.Actions) > 0 {
		l.Info("Planned actions", zap.Int("total_actions", len(plan.Actions)))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm repair actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
