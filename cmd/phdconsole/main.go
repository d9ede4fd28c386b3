package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/ai"
	"github.com/UninstallAll/PhDAuto/internal/api"
	"github.com/UninstallAll/PhDAuto/internal/apiclient"
	"github.com/UninstallAll/PhDAuto/internal/config"
	"github.com/UninstallAll/PhDAuto/internal/metrics"
	ncli "github.com/UninstallAll/PhDAuto/internal/notion"
	"github.com/UninstallAll/PhDAuto/internal/poller"
	"github.com/UninstallAll/PhDAuto/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := cfg.Logger()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log.Info("=== PhD Console Startup Sanity ===")
	log.Info("Backend URL:                  ", cfg.BackendURL)
	log.Info("SQLite file:                  ", cfg.DBPath)
	log.Info("HTTP port:                    ", cfg.Port)
	log.Info("Sequenced fetches:            ", cfg.SequencedFetches)
	log.Info("Notification poll:            ", cfg.NotificationPoll)
	log.Info("Deadline check:               ", cfg.DeadlineCheck)
	if cfg.NotionEnabled() {
		log.Info("Using Notion DB ID (norm):    ", ncli.NormalizeID(cfg.NotionDBID))
		log.Info("Using Notion Token (masked):  ", ncli.Mask(cfg.NotionToken))
	}
	if cfg.OpenAIKey != "" {
		log.Info("Using OpenAI key (masked):    ", ncli.Mask(cfg.OpenAIKey))
	}
	log.Info("==================================")

	// SQLite
	db, err := store.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	profiles := store.NewProfiles(db)
	if err := profiles.Migrate(context.Background()); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	user, err := profiles.LoadUser(context.Background())
	if err != nil {
		log.Fatalf("load user: %v", err)
	}
	log.Info("SQLite ready at: ", cfg.DBPath)

	// Backend client + central store
	m := metrics.New()
	client := apiclient.New(cfg.BackendURL, apiclient.WithObserver(m.ObserveBackend))

	opts := []store.Option{store.WithLogger(log), store.WithPersister(profiles)}
	if cfg.SequencedFetches {
		opts = append(opts, store.WithSequencedFetches())
	}
	st := store.New(client, opts...)
	st.SetUser(user)

	deps := api.Deps{
		Store:   st,
		Backend: client,
		Exports: profiles,
		Metrics: m,
		Log:     log,
	}

	// Notion client + ping. Export stays off when either setting is missing.
	if cfg.NotionEnabled() {
		nc := ncli.New(cfg.NotionToken, cfg.NotionDBID)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := nc.Ping(ctx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Notion ping failed, export disabled")
		} else {
			log.Info("Notion connection OK.")
			deps.Exporter = nc
		}
	} else {
		log.Info("Notion not configured, export disabled.")
	}

	if cfg.SMTPEnabled() {
		creds := cfg.SMTP()
		deps.SMTP = &creds
		log.Infof("Sending email through %s:%d.", creds.Server, creds.Port)
	} else {
		log.Info("SMTP not configured, sending disabled.")
	}

	if cfg.OpenAIKey != "" {
		deps.Drafter = ai.NewDrafter(cfg.OpenAIKey, cfg.OpenAIModel)
		log.Infof("Drafting emails with OpenAI model %s.", cfg.OpenAIModel)
	}

	// Background notifications
	p, err := poller.New(poller.Schedules{
		Refresh:       cfg.NotificationPoll,
		DeadlineCheck: cfg.DeadlineCheck,
	}, st, cfg.DeadlineDays, log, poller.WithCheckLog(profiles))
	if err != nil {
		log.Fatalf("poller: %v", err)
	}
	go p.Tick()
	p.Start()
	defer p.Stop()

	s := api.New(deps)
	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr}).Info("HTTP listening")
	if err := s.Listen(addr); err != nil {
		log.Fatal(err)
	}
}
