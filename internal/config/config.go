// Package config reads console settings from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

type Config struct {
	BackendURL string `env:"PHD_CONSOLE_BACKEND_URL" envDefault:"http://localhost:8000"`
	Port       string `env:"PORT"                    envDefault:"8081"`
	DBPath     string `env:"PHD_CONSOLE_DB"          envDefault:"phdconsole.sqlite"`
	LogLevel   string `env:"PHD_CONSOLE_LOG_LEVEL"   envDefault:"info"`

	// Fetch responses are applied in issue order instead of arrival order.
	SequencedFetches bool `env:"PHD_CONSOLE_SEQUENCED_FETCHES" envDefault:"false"`

	NotificationPoll string `env:"PHD_CONSOLE_NOTIFICATION_POLL" envDefault:"@every 5m"`
	DeadlineCheck    string `env:"PHD_CONSOLE_DEADLINE_CHECK"    envDefault:"@daily"`
	DeadlineDays     int    `env:"PHD_CONSOLE_DEADLINE_DAYS"     envDefault:"7"`

	// Used by the "send" action on saved emails.
	SMTPServer   string `env:"PHD_CONSOLE_SMTP_SERVER" envDefault:"smtp.gmail.com"`
	SMTPPort     int    `env:"PHD_CONSOLE_SMTP_PORT"   envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	NotionToken string `env:"NOTION_TOKEN"`
	NotionDBID  string `env:"NOTION_DB_ID"`

	OpenAIKey   string `env:"OPENAI_API_KEY"`
	OpenAIModel string `env:"OPENAI_MODEL" envDefault:"gpt-4.1-mini"`
}

// Load parses the environment. Call godotenv first if a .env file should count.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Annotate(err, "parse env")
	}
	if cfg.DeadlineDays <= 0 {
		cfg.DeadlineDays = 7
	}
	return cfg, nil
}

// NotionEnabled reports whether both Notion settings are present.
func (c Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDBID != ""
}

// SMTPEnabled reports whether credentials for sending email are present.
func (c Config) SMTPEnabled() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// SMTP returns the credentials forwarded to the backend when sending.
func (c Config) SMTP() domain.SMTPCredentials {
	return domain.SMTPCredentials{
		Server:   c.SMTPServer,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
	}
}

// Logger builds the process logger at the configured level.
func (c Config) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Annotatef(err, "log level %q", c.LogLevel)
	}
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l, nil
}
