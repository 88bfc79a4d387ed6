// Package variant builds and maintains the final channel source tree (FCS).
//
// Two input trees feed the output: the main tree shared by every product variant and
// an optional channel tree holding per-variant overrides. The channel tree has priority:
// a file or directory present there masks the same relative path in main.
//
// # Components
//
//   - Resolver: pure path mapping between the main, channel and output roots.
//   - Syncer: one-shot full sync that projects main overlaid by channel onto the output.
//   - Reconciler: handles one watch event at a time and re-derives the correct output
//     state for the affected path by consulting both tiers.
//   - Manager: lifecycle owner. Runs the full sync, then starts and stops the watch
//     subscription and fans reconcile outcomes out to observers (journal, mirror).
//
// # Events
//
// Update events carry a path whose current kind can still be inspected. Remove events
// carry only a path: the entity is gone, so the reconciler infers its kind from the
// output counterpart before mutating anything.
//
// # Usage
//
//	roots, err := cfg.Variant.Roots()
//	mgr, err := variant.NewManager(cfg.Variant, roots, afero.NewOsFs(), logger)
//	report, err := mgr.Sync(ctx)
//	err = mgr.StartWatch(ctx)
//	defer mgr.StopWatch()
package variant
