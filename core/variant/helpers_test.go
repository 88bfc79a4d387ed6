package variant

import (
	"path/filepath"
	"testing"
	"time"

	"variant-manager/core/fsutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var testRoots = Roots{
	Main:    "/work/variants/main",
	Channel: "/work/variants/beta",
	Output:  "/work/src",
}

func writeFile(t *testing.T, fsys afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	require.NoError(t, fsys.Chtimes(path, mtime, mtime))
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func exists(fsys afero.Fs, path string) bool {
	ok, _ := afero.Exists(fsys, path)
	return ok
}

func isDir(fsys afero.Fs, path string) bool {
	ok, _ := afero.IsDir(fsys, path)
	return ok
}

// fixture builds a syncer and a reconciler sharing one in-memory filesystem.
type fixture struct {
	fs         afero.Fs
	adapter    *fsutil.Adapter
	resolver   *Resolver
	syncer     *Syncer
	reconciler *Reconciler
}

func newFixture(t *testing.T, roots Roots, ignore ...string) *fixture {
	t.Helper()
	fsys := afero.NewMemMapFs()
	matcher, err := NewMatcher(ignore)
	require.NoError(t, err)
	adapter := fsutil.New(fsys)
	resolver := NewResolver(roots)
	return &fixture{
		fs:         fsys,
		adapter:    adapter,
		resolver:   resolver,
		syncer:     NewSyncer(adapter, resolver, matcher, false, zap.NewNop()),
		reconciler: NewReconciler(adapter, resolver, matcher),
	}
}

func (f *fixture) main(rel string) string    { return filepath.Join(testRoots.Main, rel) }
func (f *fixture) channel(rel string) string { return filepath.Join(testRoots.Channel, rel) }
func (f *fixture) output(rel string) string  { return filepath.Join(testRoots.Output, rel) }
