package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	twmerge "github.com/Oudwins/tailwind-merge-go"
	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	h "github.com/maragudk/gomponents/html"
)

func Render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	RenderStatus(w, r, http.StatusOK, c)
}

// RenderStatus renders c with the given status code.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := c.Render(r.Context(), w)
	if err != nil {
		slog.Error("render failed", "error", err, "path", r.URL.Path)
	}
}

// Page turns a context-aware gomponents tree into a templ.Component so
// pages can read the nonce, CSRF token and config from the request context.
func Page(build func(ctx context.Context) g.Node) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return build(ctx).Render(w)
	})
}

// Class merges tailwind classes, later ones winning on conflicts.
func Class(classes ...string) g.Node {
	return h.Class(twmerge.Merge(classes...))
}
