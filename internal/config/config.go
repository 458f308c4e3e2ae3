package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultCategories are the news categories used when NEWS_CATEGORIES is unset.
var DefaultCategories = []string{
	"ข่าวสารประชาสัมพันธ์",
	"ประชุมอบรม / สัมมนา",
	"ประกาศรับสมัครงาน",
	"ข่าวสารความรู้",
}

type Config struct {
	// Application
	AppName  string
	AppEnv   string
	AppURL   string
	Port     string
	Timezone string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	SessionSecret       string
	SessionDir          string
	SessionMaxAge       time.Duration
	CookieSecure        bool
	OTPExpiry           time.Duration
	ViewCookieTTL       time.Duration
	RateLimitAuth       int
	RateLimitAuthWindow time.Duration

	// News
	Categories     []string
	FormTextRepair bool

	// Uploads
	UploadMaxFileSize    int64
	UploadMaxImages      int
	UploadMaxPDFs        int
	UploadPartitionByDay bool

	// Email
	EmailProvider string // "log", "resend" or "smtp"
	EmailFrom     string
	ResendAPIKey  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string

	// Observability (optional)
	SentryDSN string

	// Storage ("local" or "s3")
	StorageDriver string
	StorageRoot   string
	S3Region      string
	S3Bucket      string
	S3AccessKey   string
	S3SecretKey   string
	S3Endpoint    string // Optional: for S3-compatible services (MinIO, R2, etc.)
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appEnv := envRequired("APP_ENV") // 'development' or 'production'

	cfg := &Config{
		// Application
		AppName:  envString("APP_NAME", "Newsboard"),
		AppEnv:   appEnv,
		AppURL:   envString("APP_URL", "http://localhost:8090"),
		Port:     envString("PORT", "8090"),
		Timezone: envString("TIMEZONE", "UTC"),

		// Database (mysql needs parseTime=true in the DSN)
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/newsboard.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"),

		// Security
		SessionSecret:       envRequired("SESSION_SECRET"),
		SessionDir:          envString("SESSION_DIR", "./data/sessions"),
		SessionMaxAge:       envDuration("SESSION_MAX_AGE", 24*time.Hour),
		CookieSecure:        envBool("COOKIE_SECURE", appEnv == "production"),
		OTPExpiry:           envDuration("OTP_EXPIRY", 5*time.Minute),
		ViewCookieTTL:       envDuration("VIEW_COOKIE_TTL", 24*time.Hour),
		RateLimitAuth:       envInt("RATE_LIMIT_AUTH", 10),
		RateLimitAuthWindow: envDuration("RATE_LIMIT_AUTH_WINDOW", 15*time.Minute),

		// News
		Categories:     envList("NEWS_CATEGORIES", DefaultCategories),
		FormTextRepair: envBool("FORM_TEXT_REPAIR", true),

		// Uploads
		UploadMaxFileSize:    envInt64("UPLOAD_MAX_FILE_SIZE", 50<<20), // 50MB
		UploadMaxImages:      envInt("UPLOAD_MAX_IMAGES", 10),
		UploadMaxPDFs:        envInt("UPLOAD_MAX_PDFS", 3),
		UploadPartitionByDay: envBool("UPLOAD_PARTITION_BY_DAY", false),

		// Email
		EmailProvider: envString("EMAIL_PROVIDER", "log"),
		EmailFrom:     envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey:  envString("RESEND_API_KEY", ""),
		SMTPHost:      envString("SMTP_HOST", ""),
		SMTPPort:      envInt("SMTP_PORT", 587),
		SMTPUsername:  envString("SMTP_USERNAME", ""),
		SMTPPassword:  envString("SMTP_PASSWORD", ""),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		StorageDriver: envString("STORAGE_DRIVER", "local"),
		StorageRoot:   envString("STORAGE_ROOT", "."),
		S3Region:      envString("S3_REGION", ""),
		S3Bucket:      envString("S3_BUCKET", ""),
		S3AccessKey:   envString("S3_ACCESS_KEY", ""),
		S3SecretKey:   envString("S3_SECRET_KEY", ""),
		S3Endpoint:    envString("S3_ENDPOINT", ""),
	}

	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures a real mail transport is configured outside development.
// Development may use the "log" provider, which prints codes to stdout.
func validateProduction(cfg *Config) {
	switch cfg.EmailProvider {
	case "resend":
		if cfg.ResendAPIKey == "" {
			slog.Error("production deployment requires RESEND_API_KEY")
			os.Exit(1)
		}
	case "smtp":
		if cfg.SMTPHost == "" {
			slog.Error("production deployment requires SMTP_HOST")
			os.Exit(1)
		}
	default:
		slog.Error("production deployment requires EMAIL_PROVIDER=resend or smtp",
			"provider", cfg.EmailProvider,
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}

	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		slog.Error("production deployment requires S3_BUCKET when STORAGE_DRIVER=s3")
		os.Exit(1)
	}
}

// Location returns the configured time zone for form input and display, UTC on error.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		slog.Warn("config invalid timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int64, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envList splits a comma separated value, dropping empty items.
func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
// Safe to expose in ctx and templates.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:    c.AppName,
		AppEnv:     c.AppEnv,
		AppURL:     c.AppURL,
		Port:       c.Port,
		Timezone:   c.Timezone,
		Categories: c.Categories,

		CookieSecure: c.CookieSecure,

		StorageDriver: c.StorageDriver,
		S3Endpoint:    c.S3Endpoint, // Needed for CSP policies
	}
}
