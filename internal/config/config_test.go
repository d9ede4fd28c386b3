package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.BackendURL)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "phdconsole.sqlite", cfg.DBPath)
	assert.Equal(t, "@every 5m", cfg.NotificationPoll)
	assert.Equal(t, "@daily", cfg.DeadlineCheck)
	assert.Equal(t, 7, cfg.DeadlineDays)
	assert.False(t, cfg.SequencedFetches)
	assert.False(t, cfg.NotionEnabled())
	assert.False(t, cfg.SMTPEnabled())
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPServer)
	assert.Equal(t, 587, cfg.SMTPPort)
}

func TestSMTPFromEnv(t *testing.T) {
	t.Setenv("SMTP_USERNAME", "me@example.edu")
	t.Setenv("SMTP_PASSWORD", "app-password")
	t.Setenv("PHD_CONSOLE_SMTP_PORT", "465")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.SMTPEnabled())
	creds := cfg.SMTP()
	assert.Equal(t, "smtp.gmail.com", creds.Server)
	assert.Equal(t, 465, creds.Port)
	assert.Equal(t, "me@example.edu", creds.Username)
	assert.Equal(t, "app-password", creds.Password)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PHD_CONSOLE_BACKEND_URL", "http://api.internal:9000")
	t.Setenv("PHD_CONSOLE_SEQUENCED_FETCHES", "true")
	t.Setenv("PHD_CONSOLE_DEADLINE_DAYS", "0")
	t.Setenv("NOTION_TOKEN", "secret_x")
	t.Setenv("NOTION_DB_ID", "db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://api.internal:9000", cfg.BackendURL)
	assert.True(t, cfg.SequencedFetches)
	assert.Equal(t, 7, cfg.DeadlineDays)
	assert.True(t, cfg.NotionEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("PHD_CONSOLE_DEADLINE_DAYS", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	l, err := Config{LogLevel: "debug"}.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	_, err = Config{LogLevel: "chatty"}.Logger()
	assert.Error(t, err)
}
