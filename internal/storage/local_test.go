package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStorage(root)

	key := "uploads/March_2024/photo.jpg"
	require.NoError(t, s.Save(ctx, key, strings.NewReader("jpeg"), "image/jpeg"))

	data, err := os.ReadFile(filepath.Join(root, "uploads", "March_2024", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	// no overwrite
	assert.Error(t, s.Save(ctx, key, strings.NewReader("other"), "image/jpeg"))

	require.NoError(t, s.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, "uploads", "March_2024", "photo.jpg"))
	assert.True(t, os.IsNotExist(err))

	// missing file is a no-op
	assert.NoError(t, s.Delete(ctx, key))
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s := NewLocalStorage(t.TempDir())

	for _, key := range []string{"../etc/passwd", "/abs/path", "uploads/../../x"} {
		err := s.Save(context.Background(), key, strings.NewReader("x"), "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, s.Delete(context.Background(), key), ErrInvalidKey, key)
	}
}

func TestLocalStorageURL(t *testing.T) {
	s := NewLocalStorage(".")
	assert.Equal(t, "/uploads/March_2024/a.pdf", s.URL("uploads/March_2024/a.pdf"))
	assert.Equal(t, "/uploads/March_2024/my%20file.pdf", s.URL("uploads/March_2024/my file.pdf"))
}

func TestInline(t *testing.T) {
	for key, want := range map[string]bool{
		"uploads/a.JPG":  true,
		"uploads/a.png":  true,
		"uploads/a.pdf":  true,
		"uploads/a.svg":  false,
		"uploads/a.html": false,
		"uploads/a":      false,
	} {
		assert.Equal(t, want, Inline(key), key)
	}
}

func TestLocalStorageHandler(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())
	require.NoError(t, s.Save(ctx, "uploads/May_2024/a.txt", strings.NewReader("hello"), "image/png"))
	require.NoError(t, s.Save(ctx, "uploads/May_2024/ภาพ.png", strings.NewReader("png"), "image/png"))
	require.NoError(t, s.Save(ctx, "uploads/May_2024/x.svg", strings.NewReader("<svg/>"), "image/svg+xml"))

	srv := httptest.NewServer(s.Handler("uploads"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/uploads/May_2024/a.txt")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment", resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(srv.URL + "/uploads/May_2024/x.svg")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment", resp.Header.Get("Content-Disposition"))

	resp, err = http.Get(srv.URL + s.URL("uploads/May_2024/ภาพ.png"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, err = http.Get(srv.URL + "/uploads/May_2024/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSaveStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := t.TempDir()
	s := NewLocalStorage(root)
	err := s.Save(ctx, "uploads/x.bin", strings.NewReader("data"), "")
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(root, "uploads", "x.bin"))
	assert.True(t, os.IsNotExist(statErr))
}
