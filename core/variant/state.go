package variant

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// syncState records what the last full sync projected into an output root.
type syncState struct {
	Main    string `json:"main"`
	Channel string `json:"channel"`
	// Overrides lists the output files the channel tier won, relative to the root.
	Overrides []string `json:"overrides"`

	overrides map[string]struct{}
}

// StatePath returns the file recording the last full sync of an output root.
// Like the lock file it sits next to the root.
func StatePath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".variant")
}

// sameLayout reports whether the state was written for roots.
func (s *syncState) sameLayout(roots Roots) bool {
	return s != nil && s.Main == roots.Main && s.Channel == roots.Channel
}

// overridden reports whether rel was a channel file in the recorded sync.
func (s *syncState) overridden(rel string) bool {
	_, ok := s.overrides[rel]
	return ok
}

// loadState reads the state of the previous sync. A missing or unreadable
// state yields nil, which forces a reset of the output.
func loadState(fsys afero.Fs, output string) (*syncState, error) {
	data, err := afero.ReadFile(fsys, StatePath(output))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sync state: %w", err)
	}

	var st syncState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, nil
	}
	st.overrides = make(map[string]struct{}, len(st.Overrides))
	for _, rel := range st.Overrides {
		st.overrides[rel] = struct{}{}
	}
	return &st, nil
}

// saveState records the projection just written to roots.Output.
func saveState(fsys afero.Fs, roots Roots, overrides []string) error {
	sort.Strings(overrides)
	data, err := json.MarshalIndent(syncState{
		Main:      roots.Main,
		Channel:   roots.Channel,
		Overrides: overrides,
	}, "", "  ")
	if err != nil {
		return err
	}
	path := StatePath(roots.Output)
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write sync state: %w", err)
	}
	if err := afero.WriteFile(fsys, path, data, 0o644); err != nil {
		return fmt.Errorf("write sync state: %w", err)
	}
	return nil
}

// Forget drops the recorded state so the next full sync resets the output.
// The manager calls it after each applied incremental change.
func (s *Syncer) Forget() error {
	if s.forgotten {
		return nil
	}
	err := s.fs.Fs().Remove(StatePath(s.resolver.Roots().Output))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("drop sync state: %w", err)
	}
	s.forgotten = true
	return nil
}

// channelFiles lists the non-ignored files below the channel root.
func (s *Syncer) channelFiles() ([]string, error) {
	roots := s.resolver.Roots()
	if !roots.HasChannel() {
		return nil, nil
	}
	var files []string
	err := s.fs.Walk(roots.Channel, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(roots.Channel, path)
		if err != nil || rel == "." {
			return err
		}
		if s.ignore.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list channel files: %w", err)
	}
	return files, nil
}
