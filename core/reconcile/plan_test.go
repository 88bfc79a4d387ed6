package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func driftedChecker(t *testing.T) (*Checker, afero.Fs) {
	t.Helper()
	checker, fsys := newSyncedChecker(t)
	require.NoError(t, fsys.Remove(testRoots.Output+"/index.ts"))
	writeFile(t, fsys, testRoots.Output+"/conf/app.json", "hand edit", baseTime)
	writeFile(t, fsys, testRoots.Output+"/orphan/deep.ts", "orphan", baseTime)
	require.NoError(t, fsys.RemoveAll(testRoots.Output+"/lib"))
	writeFile(t, fsys, testRoots.Output+"/lib", "not a dir", baseTime)
	return checker, fsys
}

// TestPlan_ReportOnly tests that without Fix the plan only counts drift.
func TestPlan_ReportOnly(t *testing.T) {
	checker, _ := driftedChecker(t)

	plan, err := checker.Plan(context.Background(), Options{})
	require.NoError(t, err)

	assert.Empty(t, plan.Actions)
	assert.Equal(t, 2, plan.Summary.Missing) // index.ts, lib/util.ts
	assert.Equal(t, 2, plan.Summary.Stale)   // conf/app.json, lib
	assert.Equal(t, 2, plan.Summary.Orphans) // orphan, orphan/deep.ts
	assert.Len(t, plan.Results, 6)
	assert.False(t, plan.Summary.Clean())
}

// TestPlan_RepairOrder tests that deletions precede mkdirs which precede copies.
func TestPlan_RepairOrder(t *testing.T) {
	checker, _ := driftedChecker(t)

	plan, err := checker.Plan(context.Background(), Options{Fix: true})
	require.NoError(t, err)

	var order []ActionType
	for _, a := range plan.Actions {
		if len(order) == 0 || order[len(order)-1] != a.Type {
			order = append(order, a.Type)
		}
	}
	assert.Equal(t, []ActionType{ActionDelete, ActionMkdir, ActionCopy}, order)
	assert.Equal(t, len(plan.Actions), plan.Summary.RepairActions)

	for _, a := range plan.Actions {
		if a.Type == ActionCopy && a.Key == "conf/app.json" {
			assert.Equal(t, testRoots.Channel+"/conf/app.json", a.Source)
		}
	}
}

// TestApply_RequiresConfirmation tests the safety guards on Apply.
func TestApply_RequiresConfirmation(t *testing.T) {
	checker, fsys := driftedChecker(t)
	plan, err := checker.Plan(context.Background(), Options{Fix: true})
	require.NoError(t, err)

	executed, err := checker.Apply(context.Background(), plan, Options{Fix: true})
	require.NoError(t, err)
	assert.Zero(t, executed)

	executed, err = checker.Apply(context.Background(), plan, Options{Fix: true, Confirmed: true, DryRun: true})
	require.NoError(t, err)
	assert.Zero(t, executed)

	ok, _ := afero.Exists(fsys, testRoots.Output+"/index.ts")
	assert.False(t, ok)
	ok, _ = afero.Exists(fsys, testRoots.Output+"/orphan/deep.ts")
	assert.True(t, ok)
}

// TestCheckAndApply_Repairs tests that applying a plan leaves no drift behind.
func TestCheckAndApply_Repairs(t *testing.T) {
	checker, fsys := driftedChecker(t)

	plan, executed, err := checker.CheckAndApply(context.Background(), Options{Fix: true, Confirmed: true})
	require.NoError(t, err)
	assert.Equal(t, plan.Summary.RepairActions, executed)

	after, err := checker.Plan(context.Background(), Options{})
	require.NoError(t, err)
	assert.True(t, after.Summary.Clean(), "results: %+v", after.Results)

	data, err := afero.ReadFile(fsys, testRoots.Output+"/conf/app.json")
	require.NoError(t, err)
	assert.Equal(t, "beta app", string(data))

	info, err := fsys.Stat(testRoots.Output + "/conf/app.json")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(baseTime.Add(time.Hour)))
}

// TestApply_Canceled tests that a canceled context stops the repair loop.
func TestApply_Canceled(t *testing.T) {
	checker, _ := driftedChecker(t)
	plan, err := checker.Plan(context.Background(), Options{Fix: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	executed, err := checker.Apply(ctx, plan, Options{Fix: true, Confirmed: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, executed)
}
