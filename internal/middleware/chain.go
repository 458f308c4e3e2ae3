package middleware

import (
	"net/http"

	"github.com/newsboard/newsboard/internal/ctxkeys"
)

// GuestBodyLimit caps bodies of requests without an admin session. Login and
// code forms fit comfortably.
const GuestBodyLimit = 1 << 20

// Chain applies multiple middleware in order (first to last)
//
// Example:
//
//	handler := Chain(mux,
//	    RequestLogging,       // Executes first
//	    Config(cfg),          // Executes second
//	    LoadSession(manager), // Executes third
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// MaxBodySize caps request bodies at limit bytes. Readers past the cap get
// an *http.MaxBytesError.
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionBodySize applies adminLimit to authenticated admins and guestLimit to
// everyone else, so only admins can make the server spool large uploads. It
// must run after LoadSession.
func SessionBodySize(guestLimit, adminLimit int64) func(http.Handler) http.Handler {
	guest, admin := MaxBodySize(guestLimit), MaxBodySize(adminLimit)
	return func(next http.Handler) http.Handler {
		guestNext, adminNext := guest(next), admin(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ctxkeys.IsAdmin(r.Context()) {
				adminNext.ServeHTTP(w, r)
				return
			}
			guestNext.ServeHTTP(w, r)
		})
	}
}
