package variant

import (
	"context"
	"time"

	"variant-manager/core/fsutil"
)

// Action is the mutation applied to the output tree for one event.
type Action string

const (
	// ActionCopy copies a file from its winning tier into the output.
	ActionCopy Action = "copy"
	// ActionMkdir creates an output directory.
	ActionMkdir Action = "mkdir"
	// ActionRestore re-materializes the main version after a channel override disappeared.
	ActionRestore Action = "restore"
	// ActionRemove deletes the output counterpart.
	ActionRemove Action = "remove"
	// ActionSkip leaves the output untouched.
	ActionSkip Action = "skip"
)

// Skip reasons reported on ActionSkip outcomes.
const (
	ReasonUnrelated   = "outside input roots"
	ReasonIgnored     = "ignored"
	ReasonUnsupported = "unsupported event"
	ReasonVanished    = "source vanished"
	ReasonReappeared  = "source exists again"
	ReasonExists      = "output exists"
	ReasonShadowed    = "shadowed by channel"
	ReasonLoses       = "output held by channel"
	ReasonMissing     = "output missing"
)

// Outcome describes how one event was handled.
type Outcome struct {
	Action Action      `json:"action"`
	Tier   Tier        `json:"tier"`
	Kind   fsutil.Kind `json:"kind"`
	// Rel is the event path relative to its tier root.
	Rel string `json:"rel"`
	// Source is the input path the output was derived from. Empty for removals.
	Source string `json:"source,omitempty"`
	// Target is the output path.
	Target string    `json:"target,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Changed reports whether the outcome mutated the output tree.
func (o Outcome) Changed() bool {
	return o.Action != ActionSkip
}

// Observer is notified after every handled event.
type Observer interface {
	Observe(ctx context.Context, o Outcome) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, o Outcome) error

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, o Outcome) error {
	return f(ctx, o)
}
