package app

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/newsboard/newsboard/internal/config"
	"github.com/newsboard/newsboard/internal/db"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/service"
	"github.com/newsboard/newsboard/internal/session"
	"github.com/newsboard/newsboard/internal/storage"
	"github.com/newsboard/newsboard/internal/textfix"
	"github.com/newsboard/newsboard/internal/upload"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	Location    *time.Location
	Storage     storage.Storage
	Sessions    *session.Manager
	Policy      upload.Policy
	AuthService *service.AuthService
	NewsService *service.NewsService
	Views       *service.ViewTracker

	// TextRepair fixes form text that arrived as ISO-8859-1 mojibake.
	TextRepair func(string) string
}

type Option func(*options)

type options struct {
	mailer service.OTPMailer
	now    func() time.Time
}

// WithMailer replaces the configured email delivery.
func WithMailer(m service.OTPMailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithClock replaces time.Now in the services.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	newsRepository := repository.NewNewsRepository(database)
	attachmentRepository := repository.NewAttachmentRepository(database)

	// Storage
	fileStorage, err := storage.New(cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	sessions, err := session.NewManager(session.ManagerConfig{
		Dir:    cfg.SessionDir,
		Secret: cfg.SessionSecret,
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.CookieSecure,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	// Services
	mailer := o.mailer
	if mailer == nil {
		sender, err := service.NewSender(cfg)
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to initialize email: %w", err)
		}
		mailer = service.NewEmailService(sender, cfg.EmailFrom, cfg.AppName)
	}

	policy := upload.Policy{
		MaxFileSize:    cfg.UploadMaxFileSize,
		MaxImages:      cfg.UploadMaxImages,
		MaxPDFs:        cfg.UploadMaxPDFs,
		PartitionByDay: cfg.UploadPartitionByDay,
	}
	repair := textfix.For(cfg.FormTextRepair)
	saver := upload.NewSaver(fileStorage, policy, repair, upload.WithClock(o.now))

	authService := service.NewAuthService(userRepository, mailer, cfg.OTPExpiry, service.WithAuthClock(o.now))
	newsService := service.NewNewsService(database, newsRepository, attachmentRepository, saver, fileStorage, cfg.Categories, service.WithNewsClock(o.now))

	views := service.NewViewTracker(cfg.SessionSecret, cfg.ViewCookieTTL, cfg.CookieSecure, service.WithViewClock(o.now))

	return &App{
		Cfg:         cfg,
		DB:          database,
		Location:    cfg.Location(),
		Storage:     fileStorage,
		Sessions:    sessions,
		Policy:      policy,
		AuthService: authService,
		NewsService: newsService,
		Views:       views,
		TextRepair:  repair,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
