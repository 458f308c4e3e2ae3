package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestIsUpToDate(t *testing.T) {
	dir := t.TempDir()
	old := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	out := filepath.Join(dir, "out.css")
	in := filepath.Join(dir, "in.css")

	assert.False(t, isUpToDate(out, []string{in}), "missing output")

	touch(t, in, old)
	touch(t, out, old.Add(time.Hour))
	assert.True(t, isUpToDate(out, []string{in, filepath.Join(dir, "gone.go")}))

	touch(t, in, old.Add(2*time.Hour))
	assert.False(t, isUpToDate(out, []string{in}))
}

func TestCSSSources(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, cssInput), now)
	touch(t, filepath.Join(dir, "internal", "ui", "pages", "layout.go"), now)
	touch(t, filepath.Join(dir, "internal", "ui", "pages", "pages_test.go"), now)
	touch(t, filepath.Join(dir, "assets", "js", "admin.js"), now)

	got := cssSources(dir)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, cssInput),
		filepath.Join(dir, "internal", "ui", "pages", "layout.go"),
		filepath.Join(dir, "assets", "js", "admin.js"),
	}, got)
}

func TestAirArgsUsePort(t *testing.T) {
	args := airArgs("9000")
	assert.Equal(t, "air", args[0])
	assert.Equal(t, "9000", args[len(args)-1])
}
