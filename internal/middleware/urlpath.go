package middleware

import (
	"net/http"

	"github.com/newsboard/newsboard/internal/ctxkeys"
)

// WithURLPath adds the current URL's path to the context; the layout uses it
// to highlight the active navigation entry.
func WithURLPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := ctxkeys.WithURLPath(r.Context(), r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
