package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvListSplitsAndTrims(t *testing.T) {
	t.Setenv("TEST_LIST", " a, b ,,c ")
	assert.Equal(t, []string{"a", "b", "c"}, envList("TEST_LIST", nil))
}

func TestEnvListFallsBackToDefault(t *testing.T) {
	t.Setenv("TEST_LIST", " , ")
	assert.Equal(t, []string{"x"}, envList("TEST_LIST", []string{"x"}))
}

func TestEnvHelpersUseDefaultOnGarbage(t *testing.T) {
	t.Setenv("TEST_INT", "ten")
	t.Setenv("TEST_BOOL", "maybe")
	t.Setenv("TEST_DURATION", "soon")

	assert.Equal(t, 10, envInt("TEST_INT", 10))
	assert.True(t, envBool("TEST_BOOL", true))
	assert.Equal(t, 5*time.Minute, envDuration("TEST_DURATION", 5*time.Minute))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SESSION_SECRET", "secret")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.OTPExpiry)
	assert.Equal(t, int64(50<<20), cfg.UploadMaxFileSize)
	assert.Equal(t, 10, cfg.UploadMaxImages)
	assert.Equal(t, 3, cfg.UploadMaxPDFs)
	assert.Equal(t, DefaultCategories, cfg.Categories)
	assert.False(t, cfg.CookieSecure)
}

func TestSanitizedDropsSecrets(t *testing.T) {
	cfg := &Config{AppName: "n", SessionSecret: "s", ResendAPIKey: "k", SMTPPassword: "p", S3SecretKey: "x"}

	safe := cfg.Sanitized()

	assert.Equal(t, "n", safe.AppName)
	assert.Empty(t, safe.SessionSecret)
	assert.Empty(t, safe.ResendAPIKey)
	assert.Empty(t, safe.SMTPPassword)
	assert.Empty(t, safe.S3SecretKey)
}

func TestLocationFallsBackToUTC(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, cfg.Location())
}
