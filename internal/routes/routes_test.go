package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/newsboard/newsboard/internal/app"
	"github.com/newsboard/newsboard/internal/config"
	"github.com/newsboard/newsboard/internal/middleware"
	"github.com/newsboard/newsboard/internal/service"
)

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

const (
	adminUser     = "admin"
	adminPassword = "correct-horse-battery"
	formLayout    = "2006-01-02T15:04"
)

type captureMailer struct {
	mu    sync.Mutex
	codes []string
}

func (m *captureMailer) SendOTP(_ context.Context, _, code string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *captureMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return ""
	}
	return m.codes[len(m.codes)-1]
}

type env struct {
	t      *testing.T
	app    *app.App
	server *httptest.Server
	mailer *captureMailer
	clock  *atomic.Int64
	root   string
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		AppName:             "newsboard",
		AppEnv:              "test",
		Timezone:            "UTC",
		DBDriver:            "sqlite",
		DBConnection:        filepath.Join(dir, "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		SessionSecret:       "test-secret",
		SessionDir:          filepath.Join(dir, "sessions"),
		SessionMaxAge:       24 * time.Hour,
		OTPExpiry:           5 * time.Minute,
		ViewCookieTTL:       24 * time.Hour,
		RateLimitAuth:       1000,
		RateLimitAuthWindow: time.Minute,
		Categories:          []string{"ข่าวสารประชาสัมพันธ์", "ประกาศรับสมัครงาน"},
		FormTextRepair:      true,
		UploadMaxFileSize:   1 << 20,
		UploadMaxImages:     10,
		UploadMaxPDFs:       3,
		EmailProvider:       "log",
		StorageDriver:       "local",
		StorageRoot:         filepath.Join(dir, "files"),
	}

	clock := &atomic.Int64{}
	clock.Store(testNow.UnixNano())
	mailer := &captureMailer{}

	a, err := app.New(cfg,
		app.WithMailer(mailer),
		app.WithClock(func() time.Time { return time.Unix(0, clock.Load()).UTC() }),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.AuthService.CreateUser(context.Background(), adminUser, "admin@example.com", adminPassword)
	require.NoError(t, err)

	server := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(server.Close)

	return &env{t: t, app: a, server: server, mailer: mailer, clock: clock, root: cfg.StorageRoot}
}

func (e *env) advance(d time.Duration) {
	e.clock.Add(int64(d))
}

// browser is a cookie-keeping client that does not follow redirects.
type browser struct {
	env    *env
	client *http.Client
}

func (e *env) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(e.t, err)
	return &browser{env: e, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.env.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.env.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.env.t, err)
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.env.server.URL+path, nil)
	require.NoError(b.env.t, err)
	return b.do(req)
}

func (b *browser) cookie(name string) string {
	u, _ := url.Parse(b.env.server.URL)
	for _, c := range b.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (b *browser) csrf() string {
	if token := b.cookie(middleware.CSRFCookieName); token != "" {
		return token
	}
	b.get("/")
	return b.cookie(middleware.CSRFCookieName)
}

func (b *browser) postForm(path string, form url.Values) (*http.Response, string) {
	b.env.t.Helper()
	form.Set(middleware.CSRFFormField, b.csrf())
	req, err := http.NewRequest(http.MethodPost, b.env.server.URL+path, strings.NewReader(form.Encode()))
	require.NoError(b.env.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

type file struct {
	field, name, contentType, body string
}

func (b *browser) postMultipart(path string, fields url.Values, files ...file) (*http.Response, string) {
	b.env.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields.Set(middleware.CSRFFormField, b.csrf())
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(b.env.t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		w, err := mw.CreatePart(h)
		require.NoError(b.env.t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(b.env.t, err)
	}
	require.NoError(b.env.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, b.env.server.URL+path, &buf)
	require.NoError(b.env.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return b.do(req)
}

func (b *browser) login() {
	b.env.t.Helper()

	resp, _ := b.postForm("/admin/login", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.Equal(b.env.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.env.t, "/admin/verify-2fa", resp.Header.Get("Location"))

	resp, _ = b.postForm("/admin/verify-2fa", url.Values{"otp": {b.env.mailer.last()}})
	require.Equal(b.env.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(b.env.t, "/admin/news", resp.Header.Get("Location"))
}

func newsFields(title string, start, end time.Time) url.Values {
	return url.Values{
		"title":      {title},
		"category":   {"ข่าวสารประชาสัมพันธ์"},
		"start_date": {start.Format(formLayout)},
		"end_date":   {end.Format(formLayout)},
	}
}

func (e *env) countFiles() int {
	n := 0
	_ = filepath.WalkDir(e.root, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestLoginHandshake(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	resp, _ := b.get("/admin/news")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, _ = b.get("/admin/verify-2fa")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := b.postForm("/admin/login", url.Values{"username": {adminUser}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง")

	resp, body = b.postForm("/admin/login", url.Values{"username": {"nobody"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง")

	resp, _ = b.postForm("/admin/login", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	code := e.mailer.last()
	require.Len(t, code, 6)

	// pending sessions are not admins yet
	resp, _ = b.get("/admin/news")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body = b.postForm("/admin/verify-2fa", url.Values{"otp": {"000000"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "รหัส OTP ไม่ถูกต้อง")

	resp, _ = b.postForm("/admin/verify-2fa", url.Values{"otp": {code}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/news", resp.Header.Get("Location"))

	resp, body = b.get("/admin/news")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, adminUser)

	// the code is single-use
	resp, _ = b.postForm("/admin/verify-2fa", url.Values{"otp": {code}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, _ = b.get("/admin/login")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/news", resp.Header.Get("Location"))

	resp, _ = b.get("/admin/logout")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, _ = b.get("/admin/news")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestExpiredOTPClearsSession(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	resp, _ := b.postForm("/admin/login", url.Values{"username": {adminUser}, "password": {adminPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	code := e.mailer.last()

	e.advance(5*time.Minute + time.Second)

	resp, body := b.postForm("/admin/verify-2fa", url.Values{"otp": {code}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "รหัส OTP หมดอายุ กรุณาเข้าสู่ระบบใหม่")

	resp, _ = b.get("/admin/verify-2fa")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	resp, _ = b.postForm("/admin/verify-2fa", url.Values{"otp": {code}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestCSRFRequired(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	b.get("/")

	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/admin/login",
		strings.NewReader(url.Values{"username": {adminUser}, "password": {adminPassword}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, _ := b.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, e.mailer.last())
}

func TestUploadAndRead(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()

	resp, _ := admin.postMultipart("/admin/upload", newsFields("Test News", testNow.Add(-time.Hour), testNow.Add(time.Hour)),
		file{"images", "photo.png", "image/png", "png-bytes"},
		file{"pdf_file", "doc.pdf", "application/pdf", "pdf-bytes"},
		file{"images", "script.sh", "text/x-sh", "echo"},
	)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/news?success=upload", resp.Header.Get("Location"))
	assert.Equal(t, 2, e.countFiles())

	resp, body := admin.get("/admin/news?success=upload")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "เพิ่มข่าวสารใหม่เรียบร้อยแล้ว")
	assert.Contains(t, body, "Test News")

	reader := e.browser()

	resp, body = reader.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "/news/1/Test-News")

	resp, _ = reader.get("/news/1")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	assert.Equal(t, "/news/1/Test-News", resp.Header.Get("Location"))

	resp, _ = reader.get("/news/1/wrong")
	assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)

	resp, body = reader.get("/news/1/Test-News")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "photo.png")
	assert.Contains(t, body, "doc.pdf")
	assert.NotEmpty(t, reader.cookie(service.ViewCookieName(1)))

	reader.get("/news/1/Test-News")

	news, err := e.app.NewsService.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), news.ViewCount)
	require.Len(t, news.Attachments, 2)

	// served from local storage
	resp, body = reader.get(e.app.NewsService.FileURL(news.Images()[0].FilePath))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", body)

	// a fresh browser counts again
	e.browser().get("/news/1/Test-News")
	news, err = e.app.NewsService.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), news.ViewCount)
}

func TestUploadValidation(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()

	fields := newsFields("", testNow, testNow.Add(time.Hour))
	resp, body := admin.postMultipart("/admin/upload", fields, file{"images", "a.png", "image/png", "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "required")
	assert.Zero(t, e.countFiles())

	resp, _ = admin.postMultipart("/admin/upload", newsFields("too many", testNow, testNow.Add(time.Hour)),
		file{"pdf_file", "1.pdf", "application/pdf", "1"},
		file{"pdf_file", "2.pdf", "application/pdf", "2"},
		file{"pdf_file", "3.pdf", "application/pdf", "3"},
		file{"pdf_file", "4.pdf", "application/pdf", "4"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, e.countFiles())

	items, err := e.app.NewsService.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpcomingNewsHiddenFromReaders(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()

	resp, _ := admin.postMultipart("/admin/upload", newsFields("Later", testNow.Add(time.Hour), testNow.Add(2*time.Hour)))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = e.browser().get("/news/1/Later")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = admin.get("/news/1/Later")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// not in its window, so not counted
	news, err := e.app.NewsService.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, news.ViewCount)

	resp, _ = e.browser().get("/news/99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()

	resp, _ := admin.postMultipart("/admin/upload", newsFields("Original", testNow, testNow.Add(time.Hour)),
		file{"images", "a.png", "image/png", "a"},
		file{"images", "b.png", "image/png", "b"},
	)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, body := admin.get("/admin/edit/1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, testNow.Format(formLayout))

	news, err := e.app.NewsService.ByID(context.Background(), 1)
	require.NoError(t, err)
	drop := news.Attachments[1]

	fields := newsFields("Updated Title", testNow, testNow.Add(2*time.Hour))
	fields.Set("files_to_delete", itoa(drop.ID))
	resp, _ = admin.postMultipart("/admin/update/1", fields, file{"pdf_file", "c.pdf", "application/pdf", "c"})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/news?success=update", resp.Header.Get("Location"))

	news, err = e.app.NewsService.ByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Updated-Title", news.Slug)
	assert.Len(t, news.Attachments, 2)
	assert.Equal(t, 2, e.countFiles())

	resp, _ = admin.postMultipart("/admin/update/42", newsFields("x", testNow, testNow))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = admin.get("/admin/delete/1")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/news?success=delete", resp.Header.Get("Location"))
	assert.Zero(t, e.countFiles())

	resp, _ = admin.get("/admin/delete/1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// latin1 turns UTF-8 text into the mojibake older clients submit.
func latin1(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	require.NoError(t, err)
	return out
}

func TestFormTextIsRepaired(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()
	ctx := context.Background()

	fields := newsFields(latin1(t, "ข่าวทดสอบ"), testNow, testNow.Add(time.Hour))
	fields.Set("category", latin1(t, "ประกาศรับสมัครงาน"))
	resp, _ := admin.postMultipart("/admin/upload", fields)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	items, err := e.app.NewsService.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "ข่าวทดสอบ", items[0].Title)
	assert.Equal(t, "ข่าวทดสอบ", items[0].Slug)
	assert.Equal(t, "ประกาศรับสมัครงาน", items[0].Category)

	fields = newsFields(latin1(t, "ข่าว แก้ไข"), testNow, testNow.Add(time.Hour))
	fields.Set("category", latin1(t, "ข่าวสารประชาสัมพันธ์"))
	resp, _ = admin.postMultipart("/admin/update/"+itoa(items[0].ID), fields)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	news, err := e.app.NewsService.ByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ข่าว แก้ไข", news.Title)
	assert.Equal(t, "ข่าว-แก้ไข", news.Slug)
	assert.Equal(t, "ข่าวสารประชาสัมพันธ์", news.Category)

	// correctly encoded Thai passes through untouched
	resp, _ = admin.postMultipart("/admin/update/"+itoa(items[0].ID), newsFields("ข่าวปกติ", testNow, testNow.Add(time.Hour)))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	news, err = e.app.NewsService.ByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "ข่าวปกติ", news.Title)
}

func TestDeleteFileJSON(t *testing.T) {
	e := newEnv(t)
	admin := e.browser()
	admin.login()

	resp, _ := admin.postMultipart("/admin/upload", newsFields("x", testNow, testNow.Add(time.Hour)),
		file{"images", "a.png", "image/png", "a"},
	)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	post := func(id string) (*http.Response, map[string]any) {
		req, err := http.NewRequest(http.MethodPost, e.server.URL+"/admin/delete-file/"+id, nil)
		require.NoError(t, err)
		req.Header.Set(middleware.CSRFHeader, admin.csrf())
		resp, body := admin.do(req)
		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(body), &out))
		return resp, out
	}

	resp, out := post("1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["success"])
	assert.Zero(t, e.countFiles())

	resp, out = post("1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "File not found", out["message"])
}

func TestHealthAndFallback(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	resp, body := b.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "ok")
	assert.NotEmpty(t, resp.Header.Get(middleware.RequestIDHeader))

	resp, _ = b.get("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = b.get("/archive")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = b.get("/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Disallow: /admin/")

	resp, body = b.get("/sitemap.xml")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<urlset")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
