package model

type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
)

const PDFContentType = "application/pdf"

type Attachment struct {
	ID           int64    `db:"id"`
	NewsID       int64    `db:"news_id"`
	FilePath     string   `db:"file_path"` // storage key, "uploads/<dir>/<name>"
	FileType     FileType `db:"file_type"`
	OriginalName string   `db:"original_name"`
}
