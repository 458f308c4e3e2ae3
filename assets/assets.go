// Package assets embeds the stylesheet and scripts served under /assets/.
package assets

import "embed"

// AssetsFS holds css/ and js/. css/output.css is produced by
// "go run ./cmd/do gen" from css/input.css.
//
//go:embed css js
var AssetsFS embed.FS
