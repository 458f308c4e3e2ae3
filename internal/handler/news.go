package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/newsboard/newsboard/internal/ctxkeys"
	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/session"
	"github.com/newsboard/newsboard/internal/ui"
	"github.com/newsboard/newsboard/internal/ui/pages"
	"github.com/newsboard/newsboard/internal/upload"
	"github.com/newsboard/newsboard/internal/validation"
)

const (
	msgSaveFailed   = "ไม่สามารถบันทึกข่าวสารได้ กรุณาลองใหม่อีกครั้ง"
	msgTooManyFiles = "จำนวนไฟล์เกินกำหนด"
	msgFileTooLarge = "ไฟล์มีขนาดใหญ่เกินกำหนด"
	msgInvalidForm  = "กรุณากรอกข้อมูลให้ครบถ้วน"

	// multipart parts beyond this spill to temp files
	formMemory = 8 << 20
)

type NewsHandler struct {
	newsService *service.NewsService
	authService *service.AuthService
	sessions    *session.Manager
	policy      upload.Policy
	loc         *time.Location
	repair      func(string) string
}

// NewNewsHandler builds the admin news handler. repair is applied to the
// title and category fields; nil leaves them as submitted.
func NewNewsHandler(newsService *service.NewsService, authService *service.AuthService, sessions *session.Manager, policy upload.Policy, loc *time.Location, repair func(string) string) *NewsHandler {
	if repair == nil {
		repair = func(s string) string { return s }
	}
	return &NewsHandler{
		newsService: newsService,
		authService: authService,
		sessions:    sessions,
		policy:      policy,
		loc:         loc,
		repair:      repair,
	}
}

func (h *NewsHandler) ManagePage(w http.ResponseWriter, r *http.Request) {
	var username string
	if auth, ok := ctxkeys.Session(r.Context()).(session.Authenticated); ok {
		user, err := h.authService.CurrentUser(r.Context(), auth)
		if errors.Is(err, repository.ErrUserNotFound) {
			// account removed while logged in
			_ = h.sessions.Destroy(w, r)
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}
		if err != nil {
			slog.Error("failed to get current user", "error", err, "user_id", auth.UserID())
		} else {
			username = user.Username
		}
	}

	items, err := h.newsService.List(r.Context())
	if err != nil {
		slog.Error("failed to list news", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	ui.Render(w, r, pages.Manage(pages.ManageData{
		Username: username,
		Items:    items,
		Success:  r.URL.Query().Get("success"),
		Now:      h.newsService.Now(),
		Loc:      h.loc,
	}))
}

func (h *NewsHandler) UploadPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.NewsForm(h.formData(nil, validation.NewsForm{
		Category: h.newsService.ResolveCategory(""),
	})))
}

func (h *NewsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	form, parts, ok := h.parseNewsRequest(w, r, nil)
	if !ok {
		return
	}

	news, err := h.newsService.Create(r.Context(), h.input(form), parts)
	if err != nil {
		slog.Error("failed to create news", "error", err, "title", form.Title)
		data := h.formData(nil, form)
		data.Error = msgSaveFailed
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.NewsForm(data))
		return
	}

	slog.Info("news uploaded", "news_id", news.ID)
	http.Redirect(w, r, "/admin/news?success=upload", http.StatusSeeOther)
}

func (h *NewsHandler) EditPage(w http.ResponseWriter, r *http.Request) {
	news, ok := h.loadNews(w, r)
	if !ok {
		return
	}

	ui.Render(w, r, pages.NewsForm(h.formData(news, validation.NewsForm{
		Title:       news.Title,
		Category:    news.Category,
		YoutubeLink: news.YoutubeLink,
		StartDate:   validation.FormatFormTime(news.StartDate, h.loc),
		EndDate:     validation.FormatFormTime(news.EndDate, h.loc),
	})))
}

func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	news, ok := h.loadNews(w, r)
	if !ok {
		return
	}

	form, parts, ok := h.parseNewsRequest(w, r, news)
	if !ok {
		return
	}

	deleteIDs := parseIDs(r.Form["files_to_delete"])

	_, err := h.newsService.Update(r.Context(), news.ID, h.input(form), deleteIDs, parts)
	if service.IsNotFound(err) {
		notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to update news", "error", err, "news_id", news.ID)
		data := h.formData(news, form)
		data.Error = msgSaveFailed
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.NewsForm(data))
		return
	}

	http.Redirect(w, r, "/admin/news?success=update", http.StatusSeeOther)
}

func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	err := h.newsService.Delete(r.Context(), id)
	if service.IsNotFound(err) {
		notFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to delete news", "error", err, "news_id", id)
		ui.RenderStatus(w, r, http.StatusInternalServerError, pages.Error(msgInternal))
		return
	}

	http.Redirect(w, r, "/admin/news?success=delete", http.StatusSeeOther)
}

type deleteFileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *NewsHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusNotFound, deleteFileResponse{Message: "File not found"})
		return
	}

	err := h.newsService.DeleteAttachment(r.Context(), id)
	if service.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, deleteFileResponse{Message: "File not found"})
		return
	}
	if err != nil {
		slog.Error("failed to delete attachment", "error", err, "attachment_id", id)
		writeJSON(w, http.StatusInternalServerError, deleteFileResponse{Message: "Failed to delete file"})
		return
	}

	writeJSON(w, http.StatusOK, deleteFileResponse{Success: true})
}

// parseNewsRequest reads and validates the create/update form. On failure
// it has already answered the request. news is nil on create.
func (h *NewsHandler) parseNewsRequest(w http.ResponseWriter, r *http.Request, news *model.News) (validation.NewsForm, []upload.Part, bool) {
	err := r.ParseMultipartForm(formMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.renderFormError(w, r, news, validation.NewsForm{}, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return validation.NewsForm{}, nil, false
	}
	if err != nil {
		slog.Warn("failed to parse news form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return validation.NewsForm{}, nil, false
	}

	form := validation.NewsForm{
		Title:       h.repair(r.FormValue("title")),
		Category:    h.repair(r.FormValue("category")),
		YoutubeLink: r.FormValue("youtube_link"),
		StartDate:   r.FormValue("start_date"),
		EndDate:     r.FormValue("end_date"),
	}

	err = form.Validate()
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		data := h.formData(news, form)
		data.Errors = verrs
		data.Error = msgInvalidForm
		ui.RenderStatus(w, r, http.StatusBadRequest, pages.NewsForm(data))
		return form, nil, false
	}
	if err != nil {
		slog.Error("failed to validate news form", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return form, nil, false
	}

	parts, err := h.policy.Collect(r.MultipartForm)
	switch {
	case errors.Is(err, upload.ErrTooManyFiles):
		h.renderFormError(w, r, news, form, http.StatusBadRequest, msgTooManyFiles)
		return form, nil, false
	case errors.Is(err, upload.ErrFileTooLarge):
		h.renderFormError(w, r, news, form, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		return form, nil, false
	case err != nil:
		slog.Error("failed to collect uploads", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return form, nil, false
	}

	return form, parts, true
}

func (h *NewsHandler) renderFormError(w http.ResponseWriter, r *http.Request, news *model.News, form validation.NewsForm, status int, msg string) {
	data := h.formData(news, form)
	data.Error = msg
	ui.RenderStatus(w, r, status, pages.NewsForm(data))
}

func (h *NewsHandler) loadNews(w http.ResponseWriter, r *http.Request) (*model.News, bool) {
	id, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return nil, false
	}

	news, err := h.newsService.ByID(r.Context(), id)
	if service.IsNotFound(err) {
		notFound(w, r)
		return nil, false
	}
	if err != nil {
		slog.Error("failed to get news", "error", err, "news_id", id)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return nil, false
	}
	return news, true
}

func (h *NewsHandler) input(form validation.NewsForm) service.NewsInput {
	start, end := form.Window(h.loc)
	return service.NewsInput{
		Title:       form.Title,
		Category:    form.Category,
		YoutubeLink: form.YoutubeLink,
		StartDate:   start,
		EndDate:     end,
	}
}

func (h *NewsHandler) formData(news *model.News, form validation.NewsForm) pages.NewsFormData {
	return pages.NewsFormData{
		News:       news,
		Form:       form,
		Categories: h.newsService.Categories(),
		Policy:     h.policy,
		FileURL:    h.newsService.FileURL,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, pages.NotFound())
}
