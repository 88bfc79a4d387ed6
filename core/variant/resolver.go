package variant

import (
	"path/filepath"
)

// Tier identifies which input tree a path belongs to.
type Tier int

const (
	// TierNone marks a path outside both input trees.
	TierNone Tier = iota
	// TierMain is the shared tree.
	TierMain
	// TierChannel is the override tree. It has priority over TierMain.
	TierChannel
)

func (t Tier) String() string {
	switch t {
	case TierMain:
		return "main"
	case TierChannel:
		return "channel"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Location is a path classified against the input trees.
type Location struct {
	// Tier is the input tree containing the path.
	Tier Tier
	// Rel is the path relative to that tree's root. Empty for the root itself.
	Rel string
}

// Resolver maps paths between the main, channel and output trees. It performs no I/O.
type Resolver struct {
	roots Roots
}

// NewResolver creates a resolver over resolved roots.
func NewResolver(roots Roots) *Resolver {
	return &Resolver{roots: roots}
}

// Roots returns the roots the resolver maps between.
func (r *Resolver) Roots() Roots {
	return r.roots
}

// IsUnderMain reports whether path lies in the main tree.
func (r *Resolver) IsUnderMain(path string) bool {
	return within(r.roots.Main, filepath.Clean(path))
}

// IsUnderChannel reports whether path lies in the channel tree. Always false without a channel.
func (r *Resolver) IsUnderChannel(path string) bool {
	if !r.roots.HasChannel() {
		return false
	}
	return within(r.roots.Channel, filepath.Clean(path))
}

// Relativize strips whichever input root contains path.
// ok is false when path belongs to neither tree.
func (r *Resolver) Relativize(path string) (loc Location, ok bool) {
	path = filepath.Clean(path)
	switch {
	case r.IsUnderChannel(path):
		loc = Location{Tier: TierChannel, Rel: rel(r.roots.Channel, path)}
	case r.IsUnderMain(path):
		loc = Location{Tier: TierMain, Rel: rel(r.roots.Main, path)}
	default:
		return Location{}, false
	}
	return loc, true
}

// OutputPath returns the output counterpart of an input path.
func (r *Resolver) OutputPath(path string) (string, bool) {
	loc, ok := r.Relativize(path)
	if !ok {
		return "", false
	}
	return r.Join(r.roots.Output, loc), true
}

// MainPath returns the main counterpart of an input path.
func (r *Resolver) MainPath(path string) (string, bool) {
	loc, ok := r.Relativize(path)
	if !ok {
		return "", false
	}
	return r.Join(r.roots.Main, loc), true
}

// ChannelPath returns the channel counterpart of an input path.
// ok is false when no channel is configured.
func (r *Resolver) ChannelPath(path string) (string, bool) {
	if !r.roots.HasChannel() {
		return "", false
	}
	loc, ok := r.Relativize(path)
	if !ok {
		return "", false
	}
	return r.Join(r.roots.Channel, loc), true
}

// Join places a location under root.
func (r *Resolver) Join(root string, loc Location) string {
	if loc.Rel == "" {
		return root
	}
	return filepath.Join(root, loc.Rel)
}

func rel(root, path string) string {
	if path == root {
		return ""
	}
	r, err := filepath.Rel(root, path)
	if err != nil {
		return ""
	}
	return r
}
