package reconcile

import (
	"time"

	"variant-manager/core/fsutil"
	"variant-manager/core/variant"
)

// Entry is one indexed filesystem entry.
type Entry struct {
	Kind    fsutil.Kind
	Size    int64
	ModTime time.Time
}

// Index maps relative paths to entries for one tree.
type Index map[string]Entry

// Result is the check output for one relative path.
type Result struct {
	// Rel is the path relative to the tree roots.
	Rel string `json:"rel"`

	// Winner is the tier whose entry the output must reflect. TierNone for orphans.
	Winner variant.Tier `json:"winner"`

	// Kind is the kind of the winning entry.
	Kind fsutil.Kind `json:"kind"`

	// OutputKind is the kind of the output entry.
	OutputKind fsutil.Kind `json:"output_kind"`

	// MainPresent indicates whether the path exists in the main tree.
	MainPresent bool `json:"main_present"`

	// ChannelPresent indicates whether the path exists in the channel tree.
	ChannelPresent bool `json:"channel_present"`

	// OutputPresent indicates whether the path exists in the output tree.
	OutputPresent bool `json:"output_present"`

	// Mismatch describes differences between the winner and the output entry,
	// e.g. "mtime: want=... have=...".
	Mismatch []string `json:"mismatch"`
}

// Status classifies a result.
func (r Result) Status() Status {
	switch {
	case r.Winner == variant.TierNone && r.OutputPresent:
		return StatusOrphan
	case r.Winner != variant.TierNone && !r.OutputPresent:
		return StatusMissing
	case len(r.Mismatch) > 0:
		return StatusStale
	default:
		return StatusOK
	}
}

// Status is the drift class of a path.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusStale   Status = "stale"
	StatusOrphan  Status = "orphan"
)

// ActionType represents the type of repair action.
type ActionType string

const (
	// ActionCopy copies the winning file into the output.
	ActionCopy ActionType = "copy"
	// ActionMkdir creates an output directory.
	ActionMkdir ActionType = "mkdir"
	// ActionDelete removes an output entry.
	ActionDelete ActionType = "delete"
)

// Action represents a planned repair.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Key is the relative path.
	Key string `json:"key"`

	// Source is the input path to copy from. Only set for ActionCopy.
	Source string `json:"source,omitempty"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Plan contains check results and planned repairs.
type Plan struct {
	// Results contains one entry per relative path that is not in sync.
	// Paths in sync are only counted in the summary.
	Results []Result `json:"results"`

	// Actions contains planned repair operations in execution order.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// TotalItems is the number of unique relative paths across all trees.
	TotalItems int `json:"total_items"`

	// Missing counts paths with a winner but no output entry.
	Missing int `json:"missing"`

	// Stale counts output entries whose kind, size or mtime differ from the winner.
	Stale int `json:"stale"`

	// Orphans counts output entries no input backs.
	Orphans int `json:"orphans"`

	// RepairActions counts planned actions.
	RepairActions int `json:"repair_actions"`
}

// Clean reports whether the output matched its inputs.
func (s PlanSummary) Clean() bool {
	return s.Missing == 0 && s.Stale == 0 && s.Orphans == 0
}

// Options controls the check and repair behavior.
type Options struct {
	// DryRun prevents execution of any repair if true.
	DryRun bool

	// Fix enables planning of repair actions.
	Fix bool

	// Confirmed indicates the user confirmed the repairs.
	// If false, repairs will not execute regardless of DryRun.
	Confirmed bool
}
