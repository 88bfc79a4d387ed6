package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"variant-manager/core/fsutil"
	"variant-manager/core/variant"
)

// Plan checks all trees and returns the drifted results with the repairs they call for.
// It does NOT execute actions; use Apply for that.
func (c *Checker) Plan(ctx context.Context, opts Options) (*Plan, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	results := resultsFromSnapshot(snap)
	summary, drifted, actions := c.buildPlanFromResults(results, opts)

	return &Plan{
		Results: drifted,
		Actions: actions,
		Summary: summary,
	}, nil
}

// Apply executes the actions in a plan and returns how many ran.
// Requires opts.Confirmed=true and opts.DryRun=false to actually execute.
func (c *Checker) Apply(ctx context.Context, plan *Plan, opts Options) (executed int, err error) {
	if !opts.Confirmed || opts.DryRun {
		return 0, nil
	}
	defer c.Invalidate()

	for _, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		target := filepath.Join(c.roots.Output, action.Key)

		switch action.Type {
		case ActionDelete:
			err = c.fs.Remove(target)
		case ActionMkdir:
			err = c.fs.MkdirAll(target)
		case ActionCopy:
			_, err = c.fs.Overwrite(action.Source, target)
		default:
			err = fmt.Errorf("unknown action type %q", action.Type)
		}
		if err != nil {
			return executed, fmt.Errorf("failed to %s %s: %w", action.Type, action.Key, err)
		}
		executed++
	}
	return executed, nil
}

// CheckAndApply is a convenience wrapper that plans and optionally applies repairs.
func (c *Checker) CheckAndApply(ctx context.Context, opts Options) (*Plan, int, error) {
	plan, err := c.Plan(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	executed, err := c.Apply(ctx, plan, opts)
	return plan, executed, err
}

// buildPlanFromResults counts drift and, when opts.Fix is set, orders repairs so that
// deletions run first, then directories parent before child, then file copies.
func (c *Checker) buildPlanFromResults(results []Result, opts Options) (PlanSummary, []Result, []Action) {
	var summary PlanSummary
	var drifted []Result
	var deletes, mkdirs, copies []Action

	summary.TotalItems = len(results)

	for _, result := range results {
		status := result.Status()
		switch status {
		case StatusOK:
			continue
		case StatusMissing:
			summary.Missing++
		case StatusStale:
			summary.Stale++
		case StatusOrphan:
			summary.Orphans++
		}
		drifted = append(drifted, result)

		if !opts.Fix {
			continue
		}

		if status == StatusOrphan {
			deletes = append(deletes, Action{Type: ActionDelete, Key: result.Rel, Reason: "not in any input tree"})
			continue
		}
		if status == StatusStale && result.Kind != result.OutputKind {
			deletes = append(deletes, Action{Type: ActionDelete, Key: result.Rel, Reason: result.Mismatch[0]})
		}

		reason := fmt.Sprintf("%s from %s", status, result.Winner)
		if result.Kind == fsutil.KindDir {
			mkdirs = append(mkdirs, Action{Type: ActionMkdir, Key: result.Rel, Reason: reason})
			continue
		}
		copies = append(copies, Action{
			Type:   ActionCopy,
			Key:    result.Rel,
			Source: c.sourcePath(result),
			Reason: reason,
		})
	}

	sort.SliceStable(mkdirs, func(i, j int) bool {
		return mkdirs[i].Key < mkdirs[j].Key
	})

	actions := make([]Action, 0, len(deletes)+len(mkdirs)+len(copies))
	actions = append(actions, deletes...)
	actions = append(actions, mkdirs...)
	actions = append(actions, copies...)
	summary.RepairActions = len(actions)

	return summary, drifted, actions
}

func (c *Checker) sourcePath(result Result) string {
	if result.Winner == variant.TierChannel {
		return filepath.Join(c.roots.Channel, result.Rel)
	}
	return filepath.Join(c.roots.Main, result.Rel)
}
