package routes

import (
	"io/fs"
	"net/http"

	"github.com/newsboard/newsboard/assets"
	"github.com/newsboard/newsboard/internal/app"
	"github.com/newsboard/newsboard/internal/handler"
	"github.com/newsboard/newsboard/internal/middleware"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/storage"
	"github.com/newsboard/newsboard/internal/upload"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	public := handler.NewPublicHandler(app.NewsService, app.Views, app.Location)
	auth := handler.NewAuthHandler(app.AuthService, app.Sessions)
	news := handler.NewNewsHandler(app.NewsService, app.AuthService, app.Sessions, app.Policy, app.Location, app.TextRepair)
	health := handler.NewHealthHandler(app.DB)
	seo := handler.NewSEOHandler(service.NewSitemapService(app.NewsService, app.Cfg.AppURL), app.Cfg.AppURL)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// Uploaded files are only served by us when stored on local disk
	if local, ok := app.Storage.(*storage.LocalStorage); ok {
		mux.Handle("GET /"+upload.RootDir+"/", local.Handler(upload.RootDir))
	}

	mux.HandleFunc("GET /healthz", health.Healthz)

	// SEO
	mux.HandleFunc("GET /robots.txt", seo.Robots)
	mux.HandleFunc("GET /sitemap.xml", seo.Sitemap)

	mux.HandleFunc("GET /{$}", public.HomePage)
	mux.HandleFunc("GET /archive", public.ArchivePage)
	mux.HandleFunc("GET /news/{id}", public.DetailPage)
	mux.HandleFunc("GET /news/{id}/{slug}", public.DetailPage)

	// ============================================================================
	// AUTH ROUTES (rate limited)
	// ============================================================================

	rateLimiter := middleware.RateLimitAuth(app.Cfg.RateLimitAuth, app.Cfg.RateLimitAuthWindow)

	mux.HandleFunc("GET /admin/login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("POST /admin/login", rateLimiter(middleware.RequireGuest(auth.Login)))
	mux.HandleFunc("GET /admin/verify-2fa", middleware.RequireGuest(auth.VerifyPage))
	mux.HandleFunc("POST /admin/verify-2fa", rateLimiter(auth.Verify))
	mux.HandleFunc("GET /admin/logout", auth.Logout)

	// ============================================================================
	// ADMIN ROUTES (/admin/*)
	// ============================================================================

	mux.HandleFunc("GET /admin/news", middleware.RequireAuth(news.ManagePage))
	mux.HandleFunc("GET /admin/upload", middleware.RequireAuth(news.UploadPage))
	mux.HandleFunc("POST /admin/upload", middleware.RequireAuth(news.Upload))
	mux.HandleFunc("GET /admin/edit/{id}", middleware.RequireAuth(news.EditPage))
	mux.HandleFunc("POST /admin/update/{id}", middleware.RequireAuth(news.Update))
	mux.HandleFunc("GET /admin/delete/{id}", middleware.RequireAuth(news.Delete))
	mux.HandleFunc("POST /admin/delete-file/{id}", middleware.RequireAuth(news.DeleteFile))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", public.NotFound)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Recover,
		middleware.RequestLogging,
		middleware.Config(app.Cfg),  // Config before SecurityHeaders (S3 endpoint) and CSRF (cookie flags)
		middleware.NonceMiddleware,  // Nonce before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.LoadSession(app.Sessions), // session before the body cap and CSRF form parsing
		middleware.SessionBodySize(middleware.GuestBodyLimit, app.Policy.MaxRequestSize()),
		middleware.CSRFProtection,
		middleware.WithURLPath,
	)
}
