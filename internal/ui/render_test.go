package ui

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	g "github.com/maragudk/gomponents"
	h "github.com/maragudk/gomponents/html"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestPageReadsContext(t *testing.T) {
	c := Page(func(ctx context.Context) g.Node {
		v, _ := ctx.Value(ctxKey{}).(string)
		return h.P(g.Text(v))
	})

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.WithValue(context.Background(), ctxKey{}, "hello"), &buf))
	assert.Equal(t, "<p>hello</p>", buf.String())
}

func TestClassMergesConflicts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, h.Div(Class("px-2 py-1", "px-4")).Render(&buf))
	assert.Equal(t, `<div class="py-1 px-4"></div>`, buf.String())
}

func TestRenderStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	RenderStatus(rec, req, http.StatusNotFound, Page(func(context.Context) g.Node {
		return h.P(g.Text("missing"))
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>missing</p>", rec.Body.String())
}
