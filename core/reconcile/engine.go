package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"variant-manager/core/fsutil"
	"variant-manager/core/variant"
)

// Checker compares an output tree with the trees it is projected from.
type Checker struct {
	fs     *fsutil.Adapter
	roots  variant.Roots
	ignore *variant.Matcher
	ttl    time.Duration
	cache  snapshotCache
}

// NewChecker creates a checker. A zero ttl disables snapshot caching.
func NewChecker(fs *fsutil.Adapter, roots variant.Roots, ignore *variant.Matcher, ttl time.Duration) *Checker {
	return &Checker{fs: fs, roots: roots, ignore: ignore, ttl: ttl}
}

// CheckAll returns a result for every relative path found in any tree, sorted by path.
func (c *Checker) CheckAll(ctx context.Context) ([]Result, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return resultsFromSnapshot(snap), nil
}

// CheckOne checks a single relative path against the live filesystem.
func (c *Checker) CheckOne(ctx context.Context, rel string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rel = filepath.Clean(rel)

	snap := &Snapshot{Main: Index{}, Channel: Index{}, Output: Index{}}
	for _, src := range []struct {
		root  string
		index Index
	}{
		{c.roots.Main, snap.Main},
		{c.roots.Channel, snap.Channel},
		{c.roots.Output, snap.Output},
	} {
		if src.root == "" {
			continue
		}
		entry, ok, err := c.stat(filepath.Join(src.root, rel))
		if err != nil {
			return nil, err
		}
		if ok {
			src.index[rel] = entry
		}
	}

	if c.roots.HasChannel() {
		for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
			entry, ok, err := c.stat(filepath.Join(c.roots.Channel, dir))
			if err != nil {
				return nil, err
			}
			if ok {
				snap.Channel[dir] = entry
			}
		}
	}

	result := buildResult(rel, snap)
	return &result, nil
}

func (c *Checker) stat(path string) (Entry, bool, error) {
	kind, err := c.fs.Kind(path)
	if err != nil || kind == fsutil.KindNone {
		return Entry{}, false, err
	}
	if kind == fsutil.KindDir {
		return Entry{Kind: kind}, true, nil
	}
	info, err := c.fs.Fs().Stat(path)
	if err != nil {
		return Entry{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	return Entry{Kind: kind, Size: info.Size(), ModTime: info.ModTime()}, true, nil
}

func resultsFromSnapshot(snap *Snapshot) []Result {
	union := buildUnion(snap)
	results := make([]Result, 0, len(union))
	for rel := range union {
		results = append(results, buildResult(rel, snap))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Rel < results[j].Rel
	})
	return results
}

// buildUnion creates a union of all relative paths from the three indexes.
func buildUnion(snap *Snapshot) map[string]struct{} {
	union := make(map[string]struct{}, len(snap.Output))
	for rel := range snap.Main {
		union[rel] = struct{}{}
	}
	for rel := range snap.Channel {
		union[rel] = struct{}{}
	}
	for rel := range snap.Output {
		union[rel] = struct{}{}
	}
	return union
}

// buildResult creates a Result for a single relative path.
func buildResult(rel string, snap *Snapshot) Result {
	mainEntry, mainPresent := snap.Main[rel]
	channelEntry, channelPresent := snap.Channel[rel]
	outputEntry, outputPresent := snap.Output[rel]

	result := Result{
		Rel:            rel,
		MainPresent:    mainPresent,
		ChannelPresent: channelPresent,
		OutputPresent:  outputPresent,
		OutputKind:     outputEntry.Kind,
		Mismatch:       []string{},
	}

	var want Entry
	switch {
	case channelPresent:
		result.Winner, want = variant.TierChannel, channelEntry
	case mainPresent && !shadowedByChannelFile(rel, snap.Channel):
		result.Winner, want = variant.TierMain, mainEntry
	default:
		return result
	}
	result.Kind = want.Kind

	if outputPresent {
		result.Mismatch = compareEntries(want, outputEntry)
	}
	return result
}

// shadowedByChannelFile reports whether a channel file sits at an ancestor of rel,
// masking the whole main subtree below it.
func shadowedByChannelFile(rel string, channel Index) bool {
	for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if entry, ok := channel[dir]; ok && entry.Kind != fsutil.KindDir {
			return true
		}
	}
	return false
}

// compareEntries describes how have differs from want.
func compareEntries(want, have Entry) []string {
	if want.Kind != have.Kind {
		return []string{fmt.Sprintf("kind: want=%s have=%s", want.Kind, have.Kind)}
	}
	if want.Kind == fsutil.KindDir {
		return []string{}
	}

	mismatch := []string{}
	if want.Size != have.Size {
		mismatch = append(mismatch, fmt.Sprintf("size: want=%d have=%d", want.Size, have.Size))
	}
	if !want.ModTime.Equal(have.ModTime) {
		mismatch = append(mismatch, fmt.Sprintf("mtime: want=%s have=%s",
			want.ModTime.Format(time.RFC3339), have.ModTime.Format(time.RFC3339)))
	}
	return mismatch
}
