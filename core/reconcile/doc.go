// Package reconcile verifies an output tree against the main and channel trees it is
// projected from, and repairs any drift it finds.
//
// The watcher keeps the output consistent while it runs, but edits made while nothing
// was watching, failed copies or hand edits in the output tree can leave it stale. The
// checker compares all three trees without trusting any earlier state.
//
// # Architecture
//
// 1. Index: each tree is walked into a map of relative path to entry (kind, size,
// modification time). The three walks run concurrently.
//
// 2. Engine: builds the union of relative paths over the three indexes, works out the
// winning tier for each path (channel, then main) and compares the winner with the
// output entry.
//
// 3. Plan: turns results into repair actions (copy, mkdir, delete). Plans are only
// applied when the caller confirmed them and did not ask for a dry run.
//
// 4. Cache: a TTL cache of the last snapshot with stampede protection, for callers that
// poll the check over HTTP.
//
// # Usage Example
//
//	checker := reconcile.NewChecker(fs, roots, matcher, 30*time.Second)
//	plan, err := checker.Plan(ctx, reconcile.Options{Fix: true})
//	executed, err := checker.Apply(ctx, plan, reconcile.Options{Fix: true, Confirmed: true})
package reconcile
