package variant

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"variant-manager/core/fsutil"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SyncReport summarizes one full sync.
type SyncReport struct {
	Roots Roots `json:"roots"`
	// Clean is set when the output was reset before copying.
	Clean    bool          `json:"clean"`
	Pruned   int           `json:"pruned"`
	Stats    fsutil.Stats  `json:"stats"`
	Duration time.Duration `json:"duration"`
}

// Syncer projects main overlaid by channel onto the output tree.
type Syncer struct {
	fs       *fsutil.Adapter
	resolver *Resolver
	ignore   *Matcher
	clean    bool
	logger   *zap.Logger
	// forgotten is set while no state file exists for the output.
	forgotten bool
}

// NewSyncer creates a full-sync engine. The output is reset before copying when clean
// is true, when no previous sync was recorded for it, or when the recorded main or
// channel root differs from the current one. Otherwise entries the inputs no longer
// back are pruned in place so unchanged files are not copied again.
func NewSyncer(fs *fsutil.Adapter, resolver *Resolver, ignore *Matcher, clean bool, logger *zap.Logger) *Syncer {
	return &Syncer{fs: fs, resolver: resolver, ignore: ignore, clean: clean, logger: logger}
}

// EnsureRoots creates any missing tree root.
func (s *Syncer) EnsureRoots() error {
	roots := s.resolver.Roots()
	for _, dir := range []string{roots.Main, roots.Channel, roots.Output} {
		if dir == "" {
			continue
		}
		if err := s.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("ensure root: %w", err)
		}
	}
	return nil
}

// Sync runs a full sync. Any I/O failure aborts the sync and is returned.
func (s *Syncer) Sync(ctx context.Context) (*SyncReport, error) {
	start := time.Now()
	before := s.fs.Stats()
	roots := s.resolver.Roots()
	report := &SyncReport{Roots: roots}

	if err := s.EnsureRoots(); err != nil {
		return nil, err
	}

	prev, err := loadState(s.fs.Fs(), roots.Output)
	if err != nil {
		return nil, err
	}
	if s.clean || !prev.sameLayout(roots) {
		report.Clean = true
		s.logger.Debug("Resetting output",
			zap.Bool("clean", s.clean),
			zap.Bool("recorded", prev != nil))
		if err := s.reset(ctx); err != nil {
			return nil, err
		}
	} else {
		pruned, err := s.prune(ctx, prev)
		if err != nil {
			return nil, err
		}
		report.Pruned = pruned
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.fs.CopyDirFiltered(roots.Main, roots.Output, false, s.skipMain); err != nil {
		return nil, fmt.Errorf("copy main: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if roots.HasChannel() {
		if err := s.fs.CopyDirFiltered(roots.Channel, roots.Output, false, s.skipIgnored); err != nil {
			return nil, fmt.Errorf("copy channel: %w", err)
		}
	}

	overrides, err := s.channelFiles()
	if err != nil {
		return nil, err
	}
	if err := saveState(s.fs.Fs(), roots, overrides); err != nil {
		return nil, err
	}
	s.forgotten = false

	report.Stats = s.fs.Stats().Sub(before)
	report.Duration = time.Since(start)
	s.logger.Debug("Full sync finished",
		zap.Int64("copied", report.Stats.FilesCopied),
		zap.Int64("skipped", report.Stats.FilesSkipped),
		zap.Int("pruned", report.Pruned),
		zap.Duration("duration", report.Duration))
	return report, nil
}

// reset empties the output root, keeping ignored entries and the directories holding them.
func (s *Syncer) reset(ctx context.Context) error {
	roots := s.resolver.Roots()
	var files, dirs []string

	err := s.fs.Walk(roots.Output, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(roots.Output, path)
		if err != nil || rel == "." {
			return err
		}
		if s.ignore.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			dirs = append(dirs, path)
		} else {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset output: %w", err)
	}

	for _, path := range files {
		if err := s.fs.Remove(path); err != nil {
			return err
		}
	}
	// Walk order puts parents first, so children are emptied before their parents.
	for i := len(dirs) - 1; i >= 0; i-- {
		entries, err := afero.ReadDir(s.fs.Fs(), dirs[i])
		if err != nil {
			return fmt.Errorf("reset output: %w", err)
		}
		if len(entries) > 0 {
			continue
		}
		if err := s.fs.Remove(dirs[i]); err != nil {
			return err
		}
	}
	return nil
}

// prune removes output entries whose winning tier is absent or holds another kind,
// and files whose winning tier changed since the recorded sync.
func (s *Syncer) prune(ctx context.Context, prev *syncState) (int, error) {
	roots := s.resolver.Roots()
	var stale []string

	err := s.fs.Walk(roots.Output, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, err := filepath.Rel(roots.Output, path)
		if err != nil || rel == "." {
			return err
		}
		if s.ignore.Match(rel) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		want, tier, err := s.winner(rel)
		if err != nil {
			return err
		}
		have := fsutil.KindFile
		if info.IsDir() {
			have = fsutil.KindDir
		}
		if want == have && (have == fsutil.KindDir || prev.overridden(rel) == (tier == TierChannel)) {
			return nil
		}
		stale = append(stale, path)
		if info.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune output: %w", err)
	}

	for _, path := range stale {
		if err := s.fs.Remove(path); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}

// winner returns the kind the output must hold at rel and the tier providing it.
func (s *Syncer) winner(rel string) (fsutil.Kind, Tier, error) {
	roots := s.resolver.Roots()
	if roots.HasChannel() {
		k, err := s.fs.Kind(filepath.Join(roots.Channel, rel))
		if err != nil {
			return fsutil.KindNone, TierNone, err
		}
		if k != fsutil.KindNone {
			return k, TierChannel, nil
		}
	}
	k, err := s.fs.Kind(filepath.Join(roots.Main, rel))
	if err != nil || k == fsutil.KindNone {
		return k, TierNone, err
	}
	return k, TierMain, nil
}

func (s *Syncer) skipIgnored(path string) bool {
	return s.ignore.Ignored(s.resolver, path)
}

// skipMain leaves out ignored entries and main entries a channel entry shadows.
// Directories present in both tiers are merged.
func (s *Syncer) skipMain(path string) bool {
	if s.skipIgnored(path) {
		return true
	}
	counterpart, ok := s.resolver.ChannelPath(path)
	if !ok {
		return false
	}
	k, err := s.fs.Kind(counterpart)
	if err != nil || k == fsutil.KindNone {
		return false
	}
	return !(k == fsutil.KindDir && s.fs.IsDir(path))
}
