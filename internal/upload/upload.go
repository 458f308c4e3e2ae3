// Package upload turns multipart file parts into stored attachment files.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/storage"
)

const (
	FieldImages = "images"
	FieldPDFs   = "pdf_file"

	// RootDir is the key prefix of every stored upload.
	RootDir = "uploads"
)

var (
	ErrTooManyFiles = errors.New("too many files")
	ErrFileTooLarge = errors.New("file too large")
)

// Policy bounds a single upload request.
type Policy struct {
	MaxFileSize    int64
	MaxImages      int
	MaxPDFs        int
	PartitionByDay bool
}

// MaxRequestSize is the body cap that fits a full upload plus form fields.
func (p Policy) MaxRequestSize() int64 {
	return int64(p.MaxImages+p.MaxPDFs)*p.MaxFileSize + 1<<20
}

// Part is an accepted file part.
type Part struct {
	Header      *multipart.FileHeader
	FileType    model.FileType
	ContentType string
}

// Stored describes a file written to storage.
type Stored struct {
	Key          string
	FileType     model.FileType
	OriginalName string
}

// Classify maps a declared content type to a file type. Anything that is not
// an image or a PDF is rejected.
func Classify(contentType string) (model.FileType, bool) {
	ct := mediaType(contentType)
	switch {
	case ct == model.PDFContentType:
		return model.FileTypePDF, true
	case strings.HasPrefix(ct, "image/"):
		return model.FileTypeImage, true
	default:
		return "", false
	}
}

// mediaType lowercases contentType and strips its parameters.
func mediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// Collect picks the accepted parts from the images and pdf_file fields.
// Unacceptable content types are dropped silently. Limits are applied to the
// accepted parts only.
func (p Policy) Collect(form *multipart.Form) ([]Part, error) {
	if form == nil {
		return nil, nil
	}

	var parts []Part
	for _, field := range []struct {
		name string
		max  int
	}{
		{FieldImages, p.MaxImages},
		{FieldPDFs, p.MaxPDFs},
	} {
		accepted := 0
		for _, fh := range form.File[field.name] {
			fileType, ok := Classify(fh.Header.Get("Content-Type"))
			if !ok {
				slog.Debug("upload part dropped", "field", field.name, "filename", fh.Filename, "content_type", fh.Header.Get("Content-Type"))
				continue
			}
			if fh.Size > p.MaxFileSize {
				return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, fh.Filename)
			}
			accepted++
			if accepted > field.max {
				return nil, fmt.Errorf("%w: at most %d in %s", ErrTooManyFiles, field.max, field.name)
			}
			parts = append(parts, Part{
				Header:      fh,
				FileType:    fileType,
				ContentType: mediaType(fh.Header.Get("Content-Type")),
			})
		}
	}

	return parts, nil
}

// Dir returns the directory key for files of an article starting at start,
// e.g. "uploads/March_2024" or "uploads/March_2024/10".
func Dir(start time.Time, byDay bool) string {
	dir := path.Join(RootDir, start.Format("January_2006"))
	if byDay {
		dir = path.Join(dir, start.Format("02"))
	}
	return dir
}

// Filename builds "<stem>_<YYYYMMDD>_<unixMillis>-<n><ext>" from the client name.
func Filename(original string, start, now time.Time, n int64) string {
	base := BaseName(original)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s_%d-%d%s", stem, start.Format("20060102"), now.UnixMilli(), n, ext)
}

// BaseName strips any client supplied directories, including Windows ones.
func BaseName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Saver writes accepted parts to storage.
type Saver struct {
	storage storage.Storage
	policy  Policy
	repair  func(string) string
	now     func() time.Time
	random  func() int64
}

type Option func(*Saver)

// WithClock overrides the time source used for file names.
func WithClock(now func() time.Time) Option {
	return func(s *Saver) { s.now = now }
}

// WithRandom overrides the random suffix source.
func WithRandom(random func() int64) Option {
	return func(s *Saver) { s.random = random }
}

func NewSaver(st storage.Storage, policy Policy, repair func(string) string, opts ...Option) *Saver {
	s := &Saver{
		storage: st,
		policy:  policy,
		repair:  repair,
		now:     time.Now,
		random:  func() int64 { return rand.Int64N(1_000_000_000) },
	}
	if s.repair == nil {
		s.repair = func(v string) string { return v }
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Saver) Policy() Policy {
	return s.policy
}

// Save writes every part below the directory derived from start. When a write
// fails the files already written by this call are removed before returning.
func (s *Saver) Save(ctx context.Context, parts []Part, start time.Time) ([]Stored, error) {
	dir := Dir(start, s.policy.PartitionByDay)
	stored := make([]Stored, 0, len(parts))

	for _, part := range parts {
		original := BaseName(s.repair(part.Header.Filename))
		key := path.Join(dir, Filename(original, start, s.now(), s.random()))

		err := s.savePart(ctx, key, part)
		if err != nil {
			s.Discard(ctx, stored)
			return nil, fmt.Errorf("failed to store %q: %w", original, err)
		}

		stored = append(stored, Stored{Key: key, FileType: part.FileType, OriginalName: original})
	}

	return stored, nil
}

func (s *Saver) savePart(ctx context.Context, key string, part Part) error {
	f, err := part.Header.Open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return s.storage.Save(ctx, key, f, part.ContentType)
}

// Discard removes stored files best-effort. Failures are logged only.
func (s *Saver) Discard(ctx context.Context, files []Stored) {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.Key)
	}
	RemoveAll(ctx, s.storage, keys)
}

// RemoveAll deletes keys best-effort. A failure is logged and never returned.
func RemoveAll(ctx context.Context, st storage.Storage, keys []string) {
	// cleanup must outlive a cancelled request
	ctx = context.WithoutCancel(ctx)
	for _, key := range keys {
		err := st.Delete(ctx, key)
		if err != nil {
			slog.Warn("failed to remove file", "error", err, "key", key)
		}
	}
}
