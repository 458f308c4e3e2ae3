package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/newsboard/newsboard/internal/ctxkeys"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/ui"
	"github.com/newsboard/newsboard/internal/ui/pages"
)

type PublicHandler struct {
	newsService *service.NewsService
	views       *service.ViewTracker
	loc         *time.Location
}

func NewPublicHandler(newsService *service.NewsService, views *service.ViewTracker, loc *time.Location) *PublicHandler {
	return &PublicHandler{
		newsService: newsService,
		views:       views,
		loc:         loc,
	}
}

func (h *PublicHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	category, items, err := h.newsService.Home(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		slog.Error("failed to load home", "error", err, "category", category)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error(msgInternal))
		return
	}

	ui.Render(w, r, pages.Home(pages.HomeData{
		Category:   category,
		Categories: h.newsService.Categories(),
		Items:      items,
		Loc:        h.loc,
	}))
}

func (h *PublicHandler) ArchivePage(w http.ResponseWriter, r *http.Request) {
	items, err := h.newsService.Archive(r.Context())
	if err != nil {
		slog.Error("failed to load archive", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error(msgInternal))
		return
	}

	ui.Render(w, r, pages.Archive(pages.ArchiveData{Items: items, Loc: h.loc}))
}

// DetailPage serves /news/{id} and /news/{id}/{slug}. Requests without the
// canonical slug are redirected permanently.
func (h *PublicHandler) DetailPage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	news, err := h.newsService.ByID(r.Context(), id)
	if service.IsNotFound(err) {
		notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to get news", "error", err, "news_id", id)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error(msgInternal))
		return
	}

	if r.PathValue("slug") != news.Slug {
		http.Redirect(w, r, pages.NewsPath(news.ID, news.Slug), http.StatusMovedPermanently)
		return
	}

	admin := ctxkeys.IsAdmin(r.Context())
	if !h.newsService.Visible(news, admin) {
		notFound(w, r)
		return
	}

	if !h.views.Seen(r, news.ID) {
		counted, err := h.newsService.CountView(r.Context(), news)
		if err != nil {
			// the page still renders without the increment
			slog.Error("failed to count view", "error", err, "news_id", news.ID)
		}
		if counted {
			err = h.views.Mark(w, news.ID)
			if err != nil {
				slog.Error("failed to set view cookie", "error", err, "news_id", news.ID)
			}
		}
	}

	ui.Render(w, r, pages.Detail(pages.DetailData{
		News:     news,
		Upcoming: news.Upcoming(h.newsService.Now()),
		Loc:      h.loc,
		FileURL:  h.newsService.FileURL,
	}))
}

func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	notFound(w, r)
}
