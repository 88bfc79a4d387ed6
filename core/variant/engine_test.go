package variant

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"variant-manager/core/fsutil"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedTrees(t *testing.T, f *fixture) {
	t.Helper()
	writeFile(t, f.fs, f.main("index.ts"), "main index", baseTime)
	writeFile(t, f.fs, f.main("conf/app.json"), "main app", baseTime)
	writeFile(t, f.fs, f.main("conf/shared.json"), "main shared", baseTime)
	writeFile(t, f.fs, f.main("lib/util.ts"), "main util", baseTime)
	require.NoError(t, f.fs.MkdirAll(f.main("assets/empty"), 0o755))

	writeFile(t, f.fs, f.channel("conf/app.json"), "beta app", baseTime.Add(time.Hour))
	writeFile(t, f.fs, f.channel("beta/only.ts"), "beta only", baseTime)
}

// snapshot maps every relative path under root to its content, or "<dir>".
func snapshot(t *testing.T, fsys afero.Fs, root string) map[string]string {
	t.Helper()
	tree := make(map[string]string)
	require.NoError(t, afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		require.NoError(t, err)
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		if rel == "." {
			return nil
		}
		if info.IsDir() {
			tree[rel] = "<dir>"
			return nil
		}
		tree[rel] = readFile(t, fsys, path)
		return nil
	}))
	return tree
}

func TestSyncProjection(t *testing.T) {
	f := newFixture(t, testRoots)
	seedTrees(t, f)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"index.ts":         "main index",
		"conf":             "<dir>",
		"conf/app.json":    "beta app",
		"conf/shared.json": "main shared",
		"lib":              "<dir>",
		"lib/util.ts":      "main util",
		"assets":           "<dir>",
		"assets/empty":     "<dir>",
		"beta":             "<dir>",
		"beta/only.ts":     "beta only",
	}, snapshot(t, f.fs, testRoots.Output))
	assert.Equal(t, int64(5), report.Stats.FilesCopied)
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t, testRoots)
	seedTrees(t, f)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	first := snapshot(t, f.fs, testRoots.Output)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Stats.FilesCopied)
	assert.Zero(t, report.Stats.DirsCreated)
	assert.Zero(t, report.Pruned)
	assert.Equal(t, first, snapshot(t, f.fs, testRoots.Output))
}

func TestSyncWithoutChannel(t *testing.T) {
	roots := Roots{Main: testRoots.Main, Output: testRoots.Output}
	f := newFixture(t, roots)
	seedTrees(t, f)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	tree := snapshot(t, f.fs, testRoots.Output)
	assert.Equal(t, "main app", tree["conf/app.json"])
	assert.NotContains(t, tree, "beta/only.ts")
}

func TestSyncPrunesStaleOutput(t *testing.T) {
	f := newFixture(t, testRoots)
	seedTrees(t, f)
	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	writeFile(t, f.fs, f.output("orphan.txt"), "orphan", baseTime)
	writeFile(t, f.fs, f.output("gone/deep.txt"), "gone", baseTime)
	require.NoError(t, f.fs.RemoveAll(f.output("lib")))
	writeFile(t, f.fs, f.output("lib"), "file where a dir belongs", baseTime)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Clean)
	assert.Equal(t, 3, report.Pruned)
	assert.False(t, exists(f.fs, f.output("orphan.txt")))
	assert.False(t, exists(f.fs, f.output("gone")))
	assert.True(t, isDir(f.fs, f.output("lib")))
	assert.Equal(t, "main util", readFile(t, f.fs, f.output("lib/util.ts")))
}

func TestSyncResetsUnrecordedOutput(t *testing.T) {
	f := newFixture(t, testRoots)
	seedTrees(t, f)
	writeFile(t, f.fs, f.output("orphan.txt"), "orphan", baseTime)
	writeFile(t, f.fs, f.output("gone/deep.txt"), "gone", baseTime)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean)
	assert.Zero(t, report.Pruned)
	assert.False(t, exists(f.fs, f.output("orphan.txt")))
	assert.False(t, exists(f.fs, f.output("gone")))
	assert.True(t, exists(f.fs, StatePath(testRoots.Output)))
}

func TestSyncChannelSwitchResetsOutput(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	writeFile(t, f.fs, f.main("b.txt"), "main b", baseTime)
	writeFile(t, f.fs, f.channel("a.txt"), "beta", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, "beta", readFile(t, f.fs, f.output("a.txt")))

	gamma := testRoots
	gamma.Channel = "/work/variants/gamma"
	resolver := NewResolver(gamma)
	syncer := NewSyncer(f.adapter, resolver, nil, false, zap.NewNop())

	report, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean)
	assert.Equal(t, map[string]string{
		"a.txt": "main",
		"b.txt": "main b",
	}, snapshot(t, f.fs, testRoots.Output))
}

func TestSyncRestoresMainAfterOverrideRemoved(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	writeFile(t, f.fs, f.channel("a.txt"), "beta", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	require.NoError(t, f.fs.Remove(f.channel("a.txt")))

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Clean)
	assert.Equal(t, 1, report.Pruned)
	assert.Equal(t, "main", readFile(t, f.fs, f.output("a.txt")))
}

func TestSyncAppliesNewOverrideWithSameMtime(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	writeFile(t, f.fs, f.channel("a.txt"), "beta", baseTime)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Pruned)
	assert.Equal(t, "beta", readFile(t, f.fs, f.output("a.txt")))
}

func TestSyncState(t *testing.T) {
	f := newFixture(t, testRoots, "**/*.swp")
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	writeFile(t, f.fs, f.channel("conf/app.json"), "beta", baseTime)
	writeFile(t, f.fs, f.channel("a.txt"), "beta", baseTime)
	writeFile(t, f.fs, f.channel("x.swp"), "swap", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/work", ".src.variant"), StatePath(testRoots.Output))
	st, err := loadState(f.fs, testRoots.Output)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.True(t, st.sameLayout(testRoots))
	assert.Equal(t, []string{"a.txt", filepath.Join("conf", "app.json")}, st.Overrides)
	assert.True(t, st.overridden("a.txt"))
	assert.False(t, st.overridden("x.swp"))
}

func TestSyncCorruptStateResetsOutput(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	writeFile(t, f.fs, f.output("orphan.txt"), "orphan", baseTime)
	writeFile(t, f.fs, StatePath(testRoots.Output), "{not json", baseTime)

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean)
	assert.Equal(t, map[string]string{"a.txt": "main"}, snapshot(t, f.fs, testRoots.Output))
}

func TestSyncerForgetForcesReset(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.syncer.Forget())
	assert.False(t, exists(f.fs, StatePath(testRoots.Output)))
	require.NoError(t, f.syncer.Forget())

	report, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Clean)
	assert.True(t, exists(f.fs, StatePath(testRoots.Output)))
}

func TestSyncKindConflicts(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("conf"), "main conf file", baseTime)
	writeFile(t, f.fs, f.channel("conf/x.json"), "beta x", baseTime)
	writeFile(t, f.fs, f.main("lib/a.ts"), "main a", baseTime)
	writeFile(t, f.fs, f.channel("lib"), "beta lib file", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"conf":        "<dir>",
		"conf/x.json": "beta x",
		"lib":         "beta lib file",
	}, snapshot(t, f.fs, testRoots.Output))
}

func TestSyncSameMtimeOverride(t *testing.T) {
	f := newFixture(t, testRoots)
	writeFile(t, f.fs, f.main("a.txt"), "main", baseTime)
	writeFile(t, f.fs, f.channel("a.txt"), "beta", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "beta", readFile(t, f.fs, f.output("a.txt")))
}

func TestSyncClean(t *testing.T) {
	fsys := afero.NewMemMapFs()
	adapter := fsutil.New(fsys)
	resolver := NewResolver(testRoots)
	syncer := NewSyncer(adapter, resolver, nil, true, zap.NewNop())

	writeFile(t, fsys, filepath.Join(testRoots.Main, "a.txt"), "a", baseTime)
	writeFile(t, fsys, filepath.Join(testRoots.Output, "stale.txt"), "stale", baseTime)

	report, err := syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Clean)
	assert.Equal(t, map[string]string{"a.txt": "a"}, snapshot(t, fsys, testRoots.Output))
}

func TestSyncIgnore(t *testing.T) {
	f := newFixture(t, testRoots, "**/*.swp")
	writeFile(t, f.fs, f.main("a.txt"), "a", baseTime)
	writeFile(t, f.fs, f.main("a.txt.swp"), "swap", baseTime)
	writeFile(t, f.fs, f.channel("b.swp"), "swap", baseTime)
	writeFile(t, f.fs, f.output("keep.swp"), "untouched", baseTime)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, exists(f.fs, f.output("a.txt")))
	assert.False(t, exists(f.fs, f.output("a.txt.swp")))
	assert.False(t, exists(f.fs, f.output("b.swp")))
	assert.True(t, exists(f.fs, f.output("keep.swp")))
}

func TestSyncCreatesMissingRoots(t *testing.T) {
	f := newFixture(t, testRoots)

	_, err := f.syncer.Sync(context.Background())
	require.NoError(t, err)

	assert.True(t, isDir(f.fs, testRoots.Main))
	assert.True(t, isDir(f.fs, testRoots.Channel))
	assert.True(t, isDir(f.fs, testRoots.Output))
}

func TestSyncCanceled(t *testing.T) {
	f := newFixture(t, testRoots)
	seedTrees(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.syncer.Sync(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
