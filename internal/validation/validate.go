package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// FormTimeLayouts are the accepted date-time inputs, datetime-local first.
var FormTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	err := v.RegisterValidation("formtime", func(fl validator.FieldLevel) bool {
		_, ok := ParseFormTime(fl.Field().String(), time.UTC)
		return ok
	})
	if err != nil {
		panic(err)
	}

	return v
}

// Errors maps form field names to a readable message.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// Struct validates s and converts validator failures into Errors.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := Errors{}
	for _, fe := range verrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "formtime":
		return "must be a date and time (YYYY-MM-DDTHH:MM)"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid"
	}
}

// ParseFormTime parses v in loc using FormTimeLayouts.
func ParseFormTime(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range FormTimeLayouts {
		t, err := time.ParseInLocation(layout, v, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatFormTime renders t for a datetime-local input in loc.
func FormatFormTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(FormTimeLayouts[0])
}
