package variant

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"variant-manager/core/fsutil"
)

// Reconciler keeps the output tree consistent with single watch events.
// It keeps no state between events: every decision re-reads the filesystem.
type Reconciler struct {
	fs       *fsutil.Adapter
	resolver *Resolver
	ignore   *Matcher
	now      func() time.Time
}

// NewReconciler creates a reconciler over the given adapter and roots.
func NewReconciler(fs *fsutil.Adapter, resolver *Resolver, ignore *Matcher) *Reconciler {
	return &Reconciler{fs: fs, resolver: resolver, ignore: ignore, now: time.Now}
}

// Handle applies the mutation one event calls for and reports what it did.
// Ambiguous or unrelated events yield an ActionSkip outcome and no error.
func (r *Reconciler) Handle(ctx context.Context, ev Event) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	loc, ok := r.resolver.Relativize(ev.EventPath())
	if !ok {
		return r.skip(Location{}, fsutil.KindNone, ReasonUnrelated), nil
	}
	if r.ignore.Match(loc.Rel) {
		return r.skip(loc, fsutil.KindNone, ReasonIgnored), nil
	}

	switch e := ev.(type) {
	case UpdateEvent:
		return r.update(e.Path, loc)
	case RemoveEvent:
		return r.remove(e.Path, loc)
	default:
		return r.skip(loc, fsutil.KindNone, ReasonUnsupported), nil
	}
}

func (r *Reconciler) update(path string, loc Location) (Outcome, error) {
	kind, err := r.fs.Kind(path)
	if err != nil {
		return Outcome{}, err
	}
	if kind == fsutil.KindNone {
		return r.skip(loc, kind, ReasonVanished), nil
	}

	target := r.resolver.Join(r.resolver.Roots().Output, loc)
	current, err := r.fs.Kind(target)
	if err != nil {
		return Outcome{}, err
	}
	shadow, err := r.shadowKind(loc)
	if err != nil {
		return Outcome{}, err
	}

	if kind == fsutil.KindDir {
		if current == fsutil.KindDir {
			return r.skip(loc, kind, ReasonExists), nil
		}
		if shadow != fsutil.KindNone && shadow != fsutil.KindDir {
			return r.skip(loc, kind, ReasonLoses), nil
		}
		if current == fsutil.KindFile {
			if err := r.fs.Remove(target); err != nil {
				return Outcome{}, err
			}
		}
		if err := r.fs.MkdirAll(target); err != nil {
			return Outcome{}, err
		}
		return r.outcome(ActionMkdir, loc, kind, path, target), nil
	}

	if shadow != fsutil.KindNone {
		return r.skip(loc, kind, ReasonShadowed), nil
	}
	if current == fsutil.KindDir {
		if err := r.fs.Remove(target); err != nil {
			return Outcome{}, err
		}
	}

	copyFn := r.fs.CopyFile
	if loc.Tier == TierChannel {
		copyFn = r.fs.Overwrite
	}
	copied, err := copyFn(path, target)
	if err != nil {
		return Outcome{}, err
	}
	if !copied {
		return r.skip(loc, kind, ReasonExists), nil
	}
	return r.outcome(ActionCopy, loc, kind, path, target), nil
}

func (r *Reconciler) remove(path string, loc Location) (Outcome, error) {
	exists, err := r.fs.Kind(path)
	if err != nil {
		return Outcome{}, err
	}
	if exists != fsutil.KindNone {
		return r.skip(loc, exists, ReasonReappeared), nil
	}

	target := r.resolver.Join(r.resolver.Roots().Output, loc)
	kind, err := r.fs.Kind(target)
	if err != nil {
		return Outcome{}, err
	}
	if kind == fsutil.KindNone {
		return r.skip(loc, kind, ReasonMissing), nil
	}

	if loc.Tier == TierChannel {
		return r.restore(loc, kind, target)
	}

	shadow, err := r.shadowKind(loc)
	if err != nil {
		return Outcome{}, err
	}
	if shadow != fsutil.KindNone {
		return r.skip(loc, kind, ReasonLoses), nil
	}
	if err := r.fs.Remove(target); err != nil {
		return Outcome{}, err
	}
	return r.outcome(ActionRemove, loc, kind, "", target), nil
}

// restore re-materializes the main version of a removed channel override,
// or drops the output entry when main has none.
func (r *Reconciler) restore(loc Location, kind fsutil.Kind, target string) (Outcome, error) {
	source := r.resolver.Join(r.resolver.Roots().Main, loc)
	mainKind, err := r.fs.Kind(source)
	if err != nil {
		return Outcome{}, err
	}

	switch mainKind {
	case fsutil.KindDir:
		if err := r.fs.CopyDirFiltered(source, target, true, r.skipIgnored); err != nil {
			return Outcome{}, fmt.Errorf("restore %s: %w", loc.Rel, err)
		}
	case fsutil.KindFile:
		if err := r.fs.Remove(target); err != nil {
			return Outcome{}, err
		}
		if _, err := r.fs.Overwrite(source, target); err != nil {
			return Outcome{}, fmt.Errorf("restore %s: %w", loc.Rel, err)
		}
	default:
		if err := r.fs.Remove(target); err != nil {
			return Outcome{}, err
		}
		return r.outcome(ActionRemove, loc, kind, "", target), nil
	}
	return r.outcome(ActionRestore, loc, mainKind, source, target), nil
}

// shadowKind returns the kind of the channel entry masking a main location, either at
// the same relative path or as a file in place of one of its ancestors.
// Channel locations are never masked.
func (r *Reconciler) shadowKind(loc Location) (fsutil.Kind, error) {
	channel := r.resolver.Roots().Channel
	if loc.Tier != TierMain || channel == "" {
		return fsutil.KindNone, nil
	}
	k, err := r.fs.Kind(r.resolver.Join(channel, loc))
	if err != nil || k != fsutil.KindNone {
		return k, err
	}

	for dir := filepath.Dir(loc.Rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		k, err := r.fs.Kind(filepath.Join(channel, dir))
		if err != nil {
			return fsutil.KindNone, err
		}
		switch k {
		case fsutil.KindFile:
			return fsutil.KindFile, nil
		case fsutil.KindDir:
			return fsutil.KindNone, nil
		}
	}
	return fsutil.KindNone, nil
}

func (r *Reconciler) skipIgnored(path string) bool {
	return r.ignore.Ignored(r.resolver, path)
}

func (r *Reconciler) skip(loc Location, kind fsutil.Kind, reason string) Outcome {
	return Outcome{Action: ActionSkip, Tier: loc.Tier, Kind: kind, Rel: loc.Rel, Reason: reason, At: r.now()}
}

func (r *Reconciler) outcome(action Action, loc Location, kind fsutil.Kind, source, target string) Outcome {
	return Outcome{Action: action, Tier: loc.Tier, Kind: kind, Rel: loc.Rel, Source: source, Target: target, At: r.now()}
}
