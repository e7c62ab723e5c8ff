package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuakami/watcher/v2"
	"github.com/shuakami/watcher/v2/ignored"
)

func init() {
	color.NoColor = true
}

func TestRunCheck(t *testing.T) {
	var out bytes.Buffer
	spec := ignored.List(ignored.Glob("**/node_modules"), ignored.Regexp(regexp.MustCompile(`\.tmp$`)))

	err := runCheck(&out, spec, []string{
		"web/node_modules/react/index.js",
		`src\cache.tmp`,
		"src/main.go",
	})
	require.NoError(t, err)

	want := `ignored: ["**/node_modules", /\.tmp$/]
ignored  web/node_modules/react/index.js
ignored  src\cache.tmp
watched  src/main.go
`
	assert.Equal(t, want, out.String())
}

func TestRunCheckAbsent(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runCheck(&out, ignored.Ignored{}, []string{"a"}))
	assert.Equal(t, "ignored: <absent>\nwatched  a\n", out.String())
}

func TestRunCheckCompileError(t *testing.T) {
	var out bytes.Buffer
	err := runCheck(&out, ignored.Glob("src/[bad"), []string{"src/a"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ignored.ErrGlobTranslation))
	assert.Contains(t, out.String(), "invalid ignored")
	assert.NotContains(t, out.String(), "src/a")
}

func TestResolveIgnored(t *testing.T) {
	fromFile := ignored.Glob("dist")

	spec, err := resolveIgnored(fromFile, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, fromFile.String(), spec.String())

	spec, err = resolveIgnored(fromFile, []string{"**/node_modules"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ignored.KindGlob, spec.Kind())
	assert.Equal(t, `"**/node_modules"`, spec.String())

	spec, err = resolveIgnored(fromFile, []string{"a", "b"}, []string{`\.tmp$`})
	require.NoError(t, err)
	assert.Equal(t, `["a", "b", /\.tmp$/]`, spec.String())

	_, err = resolveIgnored(fromFile, nil, []string{"("})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	assert.NoError(t, err)
	_, err = newLogger("WARN")
	assert.NoError(t, err)
	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestRunWatchPrintsBatches(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, &out, watcher.ConfigWatcher{
			WatchPaths: []string{dir},
			Ignored:    ignored.Glob("*.tmp"),
			Debounce:   10 * time.Millisecond,
		})
	}()

	// 等待 Start 完成目录注册
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644))
	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runWatch did not return after cancel")
	}

	assert.Contains(t, out.String(), filepath.Join(dir, "main.go"))
	assert.NotContains(t, out.String(), "skip.tmp")
	assert.Contains(t, out.String(), "batches=")
}

func TestRunWatchRejectsBadConfig(t *testing.T) {
	err := runWatch(context.Background(), &bytes.Buffer{}, watcher.ConfigWatcher{
		WatchPaths: []string{t.TempDir()},
		Ignored:    ignored.Glob("["),
	})
	assert.True(t, errors.Is(err, ignored.ErrGlobTranslation))

	err = runWatch(context.Background(), &bytes.Buffer{}, watcher.ConfigWatcher{
		WatchPaths: []string{filepath.Join(t.TempDir(), "missing")},
	})
	assert.Error(t, err)
}

func TestStringsFlagFromEnvironment(t *testing.T) {
	t.Setenv("WATCHER_IGNORE", "**/node_modules  {a,b}\tdist")
	initConfig()

	assert.Equal(t, []string{"**/node_modules", "{a,b}", "dist"}, stringsFlag(watchCmd, "ignore"))

	spec, err := resolveIgnored(ignored.Ignored{}, stringsFlag(watchCmd, "ignore"), nil)
	require.NoError(t, err)
	assert.Equal(t, `["**/node_modules", "{a,b}", "dist"]`, spec.String())
}
