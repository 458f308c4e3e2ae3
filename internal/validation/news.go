package validation

import (
	"strings"
	"time"
)

// NewsForm is the admin create/update form.
type NewsForm struct {
	Title       string `form:"title" validate:"required,max=500"`
	Category    string `form:"category" validate:"max=191"`
	YoutubeLink string `form:"youtube_link" validate:"omitempty,http_url,max=512"`
	StartDate   string `form:"start_date" validate:"required,formtime"`
	EndDate     string `form:"end_date" validate:"required,formtime"`
}

// Normalize trims every field.
func (f *NewsForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Category = strings.TrimSpace(f.Category)
	f.YoutubeLink = strings.TrimSpace(f.YoutubeLink)
	f.StartDate = strings.TrimSpace(f.StartDate)
	f.EndDate = strings.TrimSpace(f.EndDate)
}

func (f *NewsForm) Validate() error {
	f.Normalize()
	return Struct(f)
}

// Window returns the parsed start and end in loc. Call after Validate.
func (f *NewsForm) Window(loc *time.Location) (time.Time, time.Time) {
	start, _ := ParseFormTime(f.StartDate, loc)
	end, _ := ParseFormTime(f.EndDate, loc)
	return start, end
}
