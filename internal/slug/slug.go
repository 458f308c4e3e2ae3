// Package slug derives URL slugs from news titles.
//
// Latin letters, digits and the Thai block U+0E00..U+0E7F are kept as-is,
// every other run of characters collapses to a single hyphen.
package slug

import (
	"regexp"
	"strings"
)

var separators = regexp.MustCompile(`[^\x{0E00}-\x{0E7F}a-zA-Z0-9]+`)

// Make returns the slug for title. It is idempotent: Make(Make(s)) == Make(s).
func Make(title string) string {
	s := separators.ReplaceAllString(strings.TrimSpace(title), "-")
	return strings.Trim(s, "-")
}
