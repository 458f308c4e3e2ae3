package middleware

import (
	"net/http"

	"github.com/newsboard/newsboard/internal/ctxkeys"
	"github.com/newsboard/newsboard/internal/session"
)

const (
	LoginPath = "/admin/login"
	AdminHome = "/admin/news"
)

// LoadSession reads the login state once per request and stores it in context.
func LoadSession(manager *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			state := manager.Load(r)
			ctx := ctxkeys.WithSession(r.Context(), state)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth lets only authenticated sessions through; everyone else,
// including sessions still waiting for their code, goes to the login page.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !ctxkeys.IsAdmin(r.Context()) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireGuest sends authenticated admins away from the login pages.
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.IsAdmin(r.Context()) {
			http.Redirect(w, r, AdminHome, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	}
}
