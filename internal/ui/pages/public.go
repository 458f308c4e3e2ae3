package pages

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	g "github.com/maragudk/gomponents"
	. "github.com/maragudk/gomponents/html"

	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/ui"
)

type HomeData struct {
	Category   string
	Categories []string
	Items      []*model.News
	Loc        *time.Location
}

func Home(data HomeData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "",
			Nav(Class("mb-6 flex flex-wrap gap-2"),
				g.Group(g.Map(data.Categories, func(c string) g.Node {
					return A(Href("/?category="+url.QueryEscape(c)),
						ui.Class("rounded-full border px-3 py-1 text-sm", classIf(c == data.Category, "border-blue-600 bg-blue-600 text-white")),
						g.Text(c),
					)
				})),
			),
			H1(Class("mb-4 text-2xl font-semibold"), g.Text(data.Category)),
			newsList(data.Items, data.Loc, "ยังไม่มีข่าวสารในหมวดนี้"),
		)
	})
}

type ArchiveData struct {
	Items []*model.News
	Loc   *time.Location
}

func Archive(data ArchiveData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		return layout(ctx, "ข่าวย้อนหลัง",
			H1(Class("mb-4 text-2xl font-semibold"), g.Text("ข่าวย้อนหลัง")),
			newsList(data.Items, data.Loc, "ไม่มีข่าวย้อนหลัง"),
		)
	})
}

func newsList(items []*model.News, loc *time.Location, empty string) g.Node {
	if len(items) == 0 {
		return P(Class("text-gray-600"), g.Text(empty))
	}
	return Ul(Class("divide-y rounded border bg-white"),
		g.Group(g.Map(items, func(n *model.News) g.Node {
			return Li(Class("p-4"),
				A(Class("font-medium text-blue-700 hover:underline"), Href(NewsPath(n.ID, n.Slug)), g.Text(n.Title)),
				P(Class("mt-1 text-xs text-gray-500"),
					g.Text(n.Category+" · "+formatDate(n.StartDate, loc)),
				),
			)
		})),
	)
}

type DetailData struct {
	News     *model.News
	Upcoming bool
	Loc      *time.Location
	FileURL  func(key string) string
}

func Detail(data DetailData) templ.Component {
	return ui.Page(func(ctx context.Context) g.Node {
		n := data.News
		embed, hasVideo := YoutubeEmbedURL(n.YoutubeLink)

		return layout(ctx, n.Title,
			Article(Class("rounded border bg-white p-6"),
				g.If(data.Upcoming, alert("success", "ข่าวนี้ยังไม่ถึงเวลาเผยแพร่ (แสดงเฉพาะผู้ดูแล)")),
				P(Class("mb-1 text-sm text-gray-500"), g.Text(n.Category)),
				H1(Class("mb-2 text-2xl font-semibold"), g.Text(n.Title)),
				P(Class("mb-6 text-xs text-gray-500"),
					g.Text(formatDate(n.StartDate, data.Loc)+" - "+formatDate(n.EndDate, data.Loc)),
					g.Text(" · เข้าชม "+strconv.FormatInt(n.ViewCount, 10)+" ครั้ง"),
				),
				g.If(len(n.Images()) > 0,
					Div(Class("mb-6 grid gap-4 sm:grid-cols-2"),
						g.Group(g.Map(n.Images(), func(a *model.Attachment) g.Node {
							return A(Href(data.FileURL(a.FilePath)), Target("_blank"),
								Img(Src(data.FileURL(a.FilePath)), Alt(a.OriginalName), Class("w-full rounded"), g.Attr("loading", "lazy")),
							)
						})),
					),
				),
				g.If(hasVideo,
					Div(Class("mb-6 aspect-video"),
						g.El("iframe", Src(embed), Class("h-full w-full"), g.Attr("allowfullscreen"), g.Attr("frameborder", "0"),
							g.Attr("allow", "accelerometer; encrypted-media; gyroscope; picture-in-picture"),
						),
					),
				),
				g.If(len(n.PDFs()) > 0,
					Div(
						H2(Class("mb-2 font-medium"), g.Text("เอกสารแนบ")),
						Ul(Class("list-disc pl-5"),
							g.Group(g.Map(n.PDFs(), func(a *model.Attachment) g.Node {
								return Li(A(Class("text-blue-600"), Href(data.FileURL(a.FilePath)), Target("_blank"), g.Text(displayName(a))))
							})),
						),
					),
				),
			),
		)
	})
}

// YoutubeEmbedURL turns a watch, short or embed link into an embed URL.
func YoutubeEmbedURL(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	host = strings.TrimPrefix(host, "m.")

	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "youtube-nocookie.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/shorts/"), strings.HasPrefix(u.Path, "/live/"):
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			if len(parts) == 2 {
				id = parts[1]
			}
		}
	}

	if !validVideoID(id) {
		return "", false
	}
	return "https://www.youtube-nocookie.com/embed/" + id, true
}

func validVideoID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}
