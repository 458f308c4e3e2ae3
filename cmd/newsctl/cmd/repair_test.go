package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/newsboard/newsboard/internal/db/dbtest"
	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/repository"
)

// mangle decodes UTF-8 bytes as ISO-8859-1, the way the broken uploads did.
func mangle(t *testing.T, s string) string {
	t.Helper()
	out, err := charmap.ISO8859_1.NewDecoder().String(s)
	require.NoError(t, err)
	return out
}

func TestRepairText(t *testing.T) {
	ctx := context.Background()
	conn := dbtest.New(t)
	newsRepo := repository.NewNewsRepository(conn)
	attachmentRepo := repository.NewAttachmentRepository(conn)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	broken := &model.News{Title: mangle(t, "ข่าวใหม่"), Slug: "x", Category: "ข่าวสารความรู้", StartDate: now, EndDate: now}
	clean := &model.News{Title: "ประกาศ", Slug: "ประกาศ", Category: "ข่าวสารความรู้", StartDate: now, EndDate: now}
	require.NoError(t, newsRepo.Create(ctx, broken))
	require.NoError(t, newsRepo.Create(ctx, clean))
	require.NoError(t, attachmentRepo.CreateBatch(ctx, []*model.Attachment{
		{NewsID: clean.ID, FilePath: "uploads/a.pdf", FileType: model.FileTypePDF, OriginalName: mangle(t, "เอกสาร.pdf")},
		{NewsID: clean.ID, FilePath: "uploads/b.pdf", FileType: model.FileTypePDF, OriginalName: "report.pdf"},
	}))

	var out bytes.Buffer
	n, err := repairText(ctx, conn, false, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Contains(t, out.String(), "ข่าวใหม่")

	got, err := newsRepo.ByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, broken.Title, got.Title, "dry run must not write")

	n, err = repairText(ctx, conn, true, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err = newsRepo.ByID(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, "ข่าวใหม่", got.Title)
	assert.Equal(t, "ข่าวใหม่", got.Slug)

	attachments, err := attachmentRepo.ByNewsID(ctx, clean.ID)
	require.NoError(t, err)
	assert.Equal(t, "เอกสาร.pdf", attachments[0].OriginalName)
	assert.Equal(t, "report.pdf", attachments[1].OriginalName)

	n, err = repairText(ctx, conn, true, &out)
	require.NoError(t, err)
	assert.Zero(t, n)
}
