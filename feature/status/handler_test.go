package status

import (
	"encoding/json"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"variant-manager/core/fsutil"
	"variant-manager/core/reconcile"
	"variant-manager/core/variant"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testRoots = variant.Roots{
	Main:    "/work/variants/main",
	Channel: "/work/variants/beta",
	Output:  "/work/src",
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	require.NoError(t, fsys.Chtimes(path, baseTime, baseTime))
}

func seed(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	writeFile(t, fsys, testRoots.Main+"/index.ts", "main index")
	writeFile(t, fsys, testRoots.Main+"/conf/app.json", "main app")
	writeFile(t, fsys, testRoots.Channel+"/conf/app.json", "beta app")
	return fsys
}

func setupTestApp(t *testing.T, fsys afero.Fs) (*fiber.App, *variant.Manager) {
	t.Helper()
	manager, err := variant.NewManager(testRoots, variant.Options{Fs: fsys, Logger: zap.NewNop()})
	require.NoError(t, err)
	checker := reconcile.NewChecker(fsutil.New(fsys), testRoots, nil, time.Minute)

	app := fiber.New()
	require.NoError(t, NewFeature(manager, checker, zap.NewNop()).Load(app))
	return app, manager
}

func decode(t *testing.T, app *fiber.App, method, target string) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleStatus(t *testing.T) {
	app, _ := setupTestApp(t, seed(t))

	code, body := decode(t, app, "GET", "/status")
	assert.Equal(t, 200, code)
	assert.Equal(t, false, body["watching"])
	roots := body["roots"].(map[string]any)
	assert.Equal(t, testRoots.Channel, roots["channel"])
	assert.Nil(t, body["last_sync"])
}

func TestHandleSync(t *testing.T) {
	fsys := seed(t)
	app, manager := setupTestApp(t, fsys)

	code, body := decode(t, app, "POST", "/sync")
	assert.Equal(t, 200, code)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["files_copied"])

	data, err := afero.ReadFile(fsys, testRoots.Output+"/conf/app.json")
	require.NoError(t, err)
	assert.Equal(t, "beta app", string(data))
	assert.NotNil(t, manager.Status().LastSync)
}

func TestHandleSync_Failure(t *testing.T) {
	app, _ := setupTestApp(t, afero.NewReadOnlyFs(seed(t)))

	code, body := decode(t, app, "POST", "/sync")
	assert.Equal(t, 500, code)
	assert.NotEmpty(t, body["error"])
}

func TestHandleCheck(t *testing.T) {
	app, _ := setupTestApp(t, seed(t))

	code, body := decode(t, app, "GET", "/check")
	assert.Equal(t, 200, code)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(3), summary["missing"]) // index.ts, conf, conf/app.json

	_, _ = decode(t, app, "POST", "/sync")

	code, body = decode(t, app, "GET", "/check")
	assert.Equal(t, 200, code)
	summary = body["summary"].(map[string]any)
	assert.Equal(t, float64(0), summary["missing"])
}

func TestHandleResolve(t *testing.T) {
	app, _ := setupTestApp(t, seed(t))

	tests := []struct {
		name   string
		path   string
		code   int
		winner string
		output string
	}{
		{"Relative Override", "conf/app.json", 200, "channel", testRoots.Output + "/conf/app.json"},
		{"Relative Main", "index.ts", 200, "main", testRoots.Output + "/index.ts"},
		{"Absolute Channel", testRoots.Channel + "/conf/app.json", 200, "channel", testRoots.Output + "/conf/app.json"},
		{"Escapes Roots", "../secret", 400, "", ""},
		{"Unrelated", "/etc/passwd", 400, "", ""},
		{"Missing Param", "", 400, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := decode(t, app, "GET", "/resolve?path="+url.QueryEscape(tt.path))
			assert.Equal(t, tt.code, code)
			if tt.winner != "" {
				assert.Equal(t, tt.winner, body["winner"])
				assert.Equal(t, tt.output, body["output"])
			}
		})
	}
}
