package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newsboard/newsboard/internal/db/dbtest"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/storage"
	"github.com/newsboard/newsboard/internal/upload"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

var testCategories = []string{"ข่าวสารประชาสัมพันธ์", "ประชุมอบรม / สัมมนา"}

type fakeMailer struct {
	mu    sync.Mutex
	err   error
	sent  []string
	codes []string
}

func (m *fakeMailer) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	m.codes = append(m.codes, code)
	return nil
}

type newsFixture struct {
	db          *sqlx.DB
	root        string
	news        *NewsService
	newsRepo    repository.NewsRepository
	attachments repository.AttachmentRepository
}

func newNewsFixture(t *testing.T) *newsFixture {
	t.Helper()

	conn := dbtest.New(t)
	root := t.TempDir()
	st := storage.NewLocalStorage(root)
	policy := upload.Policy{MaxFileSize: 1 << 20, MaxImages: 10, MaxPDFs: 3}
	saver := upload.NewSaver(st, policy, nil)
	newsRepo := repository.NewNewsRepository(conn)
	attachmentRepo := repository.NewAttachmentRepository(conn)

	svc := NewNewsService(conn, newsRepo, attachmentRepo, saver, st, testCategories,
		WithNewsClock(func() time.Time { return testNow }))

	return &newsFixture{db: conn, root: root, news: svc, newsRepo: newsRepo, attachments: attachmentRepo}
}

func (f *newsFixture) exists(t *testing.T, key string) bool {
	t.Helper()
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(key)))
	return err == nil
}

func (f *newsFixture) uploadedFiles(t *testing.T) []string {
	t.Helper()
	var files []string
	_ = filepath.WalkDir(filepath.Join(f.root, "uploads"), func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files
}

type part struct {
	field, name, contentType, body string
}

func parts(t *testing.T, ps ...part) []upload.Part {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range ps {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.field, p.name))
		h.Set("Content-Type", p.contentType)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write([]byte(p.body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	out, err := upload.Policy{MaxFileSize: 1 << 20, MaxImages: 10, MaxPDFs: 3}.Collect(form)
	require.NoError(t, err)
	return out
}
