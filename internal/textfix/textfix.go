// Package textfix repairs text that was UTF-8 on the wire but decoded as ISO-8859-1
// somewhere upstream (typically multipart filenames from older browsers).
package textfix

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Repair re-encodes s as ISO-8859-1 and returns the bytes read as UTF-8.
// s is returned unchanged when it contains runes above U+00FF, is pure ASCII,
// or when the re-encoded bytes are not valid UTF-8. Correctly decoded text
// therefore passes through untouched.
func Repair(s string) string {
	if isASCII(s) {
		return s
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err != nil {
		return s
	}

	if !utf8.ValidString(raw) {
		return s
	}
	return raw
}

// NeedsRepair reports whether Repair would change s.
func NeedsRepair(s string) bool {
	return Repair(s) != s
}

// For returns Repair when enabled and an identity function otherwise.
func For(enabled bool) func(string) string {
	if enabled {
		return Repair
	}
	return func(s string) string { return s }
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
