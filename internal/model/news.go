package model

import (
	"time"
)

type News struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Category    string    `db:"category"`
	YoutubeLink string    `db:"youtube_link"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	ViewCount   int64     `db:"view_count"`

	// Loaded separately (not a column)
	Attachments []*Attachment `db:"-"`
}

// Active reports whether now falls inside the inclusive publish window.
func (n *News) Active(now time.Time) bool {
	return !now.Before(n.StartDate) && !now.After(n.EndDate)
}

// Upcoming reports whether the article has not started yet.
func (n *News) Upcoming(now time.Time) bool {
	return n.StartDate.After(now)
}

func (n *News) Images() []*Attachment {
	return n.attachmentsOfType(FileTypeImage)
}

func (n *News) PDFs() []*Attachment {
	return n.attachmentsOfType(FileTypePDF)
}

func (n *News) attachmentsOfType(t FileType) []*Attachment {
	var out []*Attachment
	for _, a := range n.Attachments {
		if a.FileType == t {
			out = append(out, a)
		}
	}
	return out
}
