package api

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
	"github.com/UninstallAll/PhDAuto/internal/metrics"
	"github.com/UninstallAll/PhDAuto/internal/notion"
	"github.com/UninstallAll/PhDAuto/internal/router"
	"github.com/UninstallAll/PhDAuto/internal/store"
)

// Exporter copies an application into an external tracker.
type Exporter interface {
	Ping(ctx context.Context) error
	ExportApplication(ctx context.Context, app, school domain.Record) (string, error)
	SearchDatabases(ctx context.Context) ([]notion.Database, error)
}

// ExportLog remembers where applications were exported to.
type ExportLog interface {
	SaveNotionExport(ctx context.Context, applicationID, pageID string) error
	NotionExport(ctx context.Context, applicationID string) (string, error)
}

// Drafter writes outreach emails without going through the backend.
type Drafter interface {
	DraftEmail(ctx context.Context, professor domain.Record, student domain.StudentInfo) (domain.EmailDraft, error)
}

// Deps is everything the console server is built from. Exporter, Exports,
// Drafter and SMTP are optional.
type Deps struct {
	Store    *store.Store
	Backend  store.Backend
	Exporter Exporter
	Exports  ExportLog
	Drafter  Drafter
	SMTP     *domain.SMTPCredentials
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
}

type Server struct {
	store    *store.Store
	backend  store.Backend
	exporter Exporter
	exports  ExportLog
	drafter  Drafter
	smtp     *domain.SMTPCredentials
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
	router   *router.Router
	mux      *http.ServeMux
}

func New(d Deps) *Server {
	s := &Server{
		store:    d.Store,
		backend:  d.Backend,
		exporter: d.Exporter,
		exports:  d.Exports,
		drafter:  d.Drafter,
		smtp:     d.SMTP,
		metrics:  d.Metrics,
		log:      d.Log,
		mux:      http.NewServeMux(),
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router = router.New(s.views(), s.logNavigation, s.metrics.ObserveNavigation)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /ws", s.handleLive)
	s.mux.HandleFunc("GET /debug/backend", s.handleDebugBackend)
	s.mux.HandleFunc("GET /debug/notion", s.handleDebugNotion)
	s.mux.HandleFunc("GET /debug/notion/search", s.handleDebugSearchDatabases)

	// Everything else is a console page.
	s.mux.Handle("/", s.router)
}

func (s *Server) views() router.Views {
	return router.Views{
		router.Home:              http.HandlerFunc(s.viewHome),
		router.SchoolList:        s.listView(schoolList),
		router.SchoolDetail:      s.detailView(schoolDetail),
		router.ProfessorList:     s.listView(professorList),
		router.ProfessorDetail:   s.detailView(professorDetail),
		router.ApplicationList:   s.listView(applicationList),
		router.ApplicationDetail: http.HandlerFunc(s.viewApplication),
		router.EmailList:         http.HandlerFunc(s.viewEmails),
		router.EmailCompose:      http.HandlerFunc(s.viewCompose),
		router.DocumentList:      s.listView(documentList),
		router.Search:            http.HandlerFunc(s.viewSearch),
		router.Settings:          http.HandlerFunc(s.viewSettings),
		router.NotFound:          http.HandlerFunc(s.viewNotFound),
	}
}

func (s *Server) logNavigation(nav router.Navigation) {
	s.log.WithFields(logrus.Fields{
		"route": nav.Name,
		"path":  nav.Path,
		"title": nav.Title,
	}).Debug("navigate")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Listen(addr string) error {
	s.log.Info("Server starting…")
	return http.ListenAndServe(addr, s.mux)
}
