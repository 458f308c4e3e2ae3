package ctxkeys

import (
	"context"

	"github.com/newsboard/newsboard/internal/config"
	"github.com/newsboard/newsboard/internal/session"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	SessionKey   contextKey = "session"
	URLPathKey   contextKey = "url_path"
	ConfigKey    contextKey = "config"
	CSRFTokenKey contextKey = "csrf_token"
	RequestIDKey contextKey = "request_id"
)

// Session returns the login state loaded for the request, Anonymous if none.
func Session(ctx context.Context) session.State {
	state, ok := ctx.Value(SessionKey).(session.State)
	if !ok {
		return session.Anonymous{}
	}
	return state
}

func WithSession(ctx context.Context, state session.State) context.Context {
	return context.WithValue(ctx, SessionKey, state)
}

// IsAdmin reports whether the request carries an authenticated session.
func IsAdmin(ctx context.Context) bool {
	return session.IsAuthenticated(Session(ctx))
}

func URLPath(ctx context.Context) string {
	path, _ := ctx.Value(URLPathKey).(string)
	return path
}

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, URLPathKey, path)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(CSRFTokenKey).(string)
	return token
}

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, CSRFTokenKey, token)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
