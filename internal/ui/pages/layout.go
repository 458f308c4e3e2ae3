// Package pages holds the server-rendered HTML pages.
package pages

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/newsboard/newsboard/internal/ctxkeys"
	"github.com/newsboard/newsboard/internal/ui"
)

const dateLayout = "02/01/2006 15:04"

func appName(ctx context.Context) string {
	if cfg := ctxkeys.Config(ctx); cfg != nil && cfg.AppName != "" {
		return cfg.AppName
	}
	return "newsboard"
}

func layout(ctx context.Context, title string, body ...g.Node) g.Node {
	name := appName(ctx)
	if title != "" {
		title += " | " + name
	} else {
		title = name
	}

	return Doctype(
		HTML(Lang("th"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				Meta(Name("csrf-token"), Content(ctxkeys.CSRFToken(ctx))),
				TitleEl(g.Text(title)),
				Link(Rel("stylesheet"), Href("/assets/css/output.css")),
			),
			Body(Class("min-h-screen bg-gray-50 text-gray-900"),
				navbar(ctx, name),
				Main(Class("mx-auto max-w-5xl px-4 py-8"), g.Group(body)),
				g.If(ctxkeys.IsAdmin(ctx),
					Script(Src("/assets/js/admin.js"), g.Attr("nonce", templ.GetNonce(ctx)), Defer()),
				),
			),
		),
	)
}

func navbar(ctx context.Context, name string) g.Node {
	admin := ctxkeys.IsAdmin(ctx)
	return Nav(Class("border-b bg-white"),
		Div(Class("mx-auto flex max-w-5xl items-center justify-between px-4 py-3"),
			A(Class("text-lg font-semibold"), Href("/"), g.Text(name)),
			Div(Class("flex gap-4 text-sm"),
				navLink(ctx, "/", "หน้าแรก"),
				navLink(ctx, "/archive", "ข่าวย้อนหลัง"),
				g.If(admin, g.Group([]g.Node{
					navLink(ctx, "/admin/news", "จัดการข่าว"),
					navLink(ctx, "/admin/upload", "เพิ่มข่าว"),
					A(Href("/admin/logout"), g.Text("ออกจากระบบ")),
				})),
			),
		),
	)
}

func navLink(ctx context.Context, href, text string) g.Node {
	current := ctxkeys.URLPath(ctx) == href
	return A(Href(href),
		ui.Class("text-gray-600 hover:text-gray-900", classIf(current, "font-semibold text-gray-900")),
		g.Text(text),
	)
}

func classIf(cond bool, class string) string {
	if cond {
		return class
	}
	return ""
}

func alert(kind, message string) g.Node {
	if message == "" {
		return nil
	}
	return Div(
		ui.Class("mb-4 rounded border px-4 py-3 text-sm",
			classIf(kind == "error", "border-red-300 bg-red-50 text-red-800"),
			classIf(kind == "success", "border-green-300 bg-green-50 text-green-800"),
		),
		Role("alert"),
		g.Text(message),
	)
}

func csrfField(ctx context.Context) g.Node {
	return Input(Type("hidden"), Name("csrf_token"), Value(ctxkeys.CSRFToken(ctx)))
}

func button(text string, extra ...string) g.Node {
	return Button(Type("submit"),
		ui.Class(append([]string{"rounded bg-blue-600 px-4 py-2 text-white hover:bg-blue-700"}, extra...)...),
		g.Text(text),
	)
}

func formatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

// NewsPath builds /news/{id}/{slug} with the slug path-escaped.
func NewsPath(id int64, slug string) string {
	p := "/news/" + strconv.FormatInt(id, 10)
	if slug != "" {
		p += "/" + url.PathEscape(slug)
	}
	return p
}

// NotFound is the generic 404 page.
func NotFound() templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "ไม่พบหน้าที่ต้องการ",
			H1(Class("mb-2 text-2xl font-semibold"), g.Text("404")),
			P(g.Text("ไม่พบหน้าที่ต้องการ")),
			P(Class("mt-4"), A(Class("text-blue-600"), Href("/"), g.Text("กลับหน้าแรก"))),
		)
	})
}

// Error is the generic failure page; message is shown as-is.
func Error(message string) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "เกิดข้อผิดพลาด", alert("error", message))
	})
}

func form(children ...g.Node) g.Node {
	return g.El("form", children...)
}

func label(children ...g.Node) g.Node {
	return g.El("label", children...)
}
