package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
	"github.com/UninstallAll/PhDAuto/internal/router"
	"github.com/UninstallAll/PhDAuto/internal/store"
)

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func seeOther(w http.ResponseWriter, r *http.Request, path, notice string) {
	if notice != "" {
		path += "?" + url.Values{"notice": {notice}}.Encode()
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func routeParam(r *http.Request, name string) string {
	nav, _ := router.FromContext(r.Context())
	return nav.Params[name]
}

// --- home ----------------------------------------------------------------

type homeData struct {
	Applications  []domain.Record
	Notifications []domain.Record
}

func (s *Server) viewHome(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodPost {
		id := r.PostFormValue("notification_id")
		if id == "" {
			http.Error(w, "notification_id is required", http.StatusBadRequest)
			return
		}
		if !s.store.MarkNotificationRead(ctx, id) {
			seeOther(w, r, "/", "Could not mark the notification as read")
			return
		}
		seeOther(w, r, "/", "")
		return
	}

	s.store.FetchApplications(ctx)
	s.store.FetchNotifications(ctx)
	s.render(w, r, "home", http.StatusOK, page{Data: homeData{
		Applications:  s.store.AllApplications(),
		Notifications: s.store.UnreadNotifications(),
	}})
}

// --- collections ---------------------------------------------------------

type listSpec struct {
	heading string
	noun    string
	path    string
	base    string // detail link prefix, empty when records have no page
	columns []string
	fetch   func(*store.Store, context.Context)
	all     func(*store.Store) []domain.Record

	// Set when records can be added from the list page.
	fields []formField
	create func(*store.Store, context.Context, any) domain.Record

	sendable bool
}

var (
	schoolList = listSpec{
		heading: "Schools",
		noun:    "School",
		path:    "/schools",
		base:    "/schools/",
		columns: []string{"name", "department", "program", "location", "application_deadline"},
		fetch:   (*store.Store).FetchSchools,
		all:     (*store.Store).AllSchools,
		fields:  schoolFields,
		create:  (*store.Store).CreateSchool,
	}
	professorList = listSpec{
		heading: "Professors",
		noun:    "Professor",
		path:    "/professors",
		base:    "/professors/",
		columns: []string{"name", "email", "title", "research_area"},
		fetch:   (*store.Store).FetchProfessors,
		all:     (*store.Store).AllProfessors,
		fields:  professorFields,
		create:  (*store.Store).CreateProfessor,
	}
	applicationList = listSpec{
		heading: "Applications",
		noun:    "Application",
		path:    "/applications",
		base:    "/applications/",
		columns: []string{"school_id", "professor_id", "status", "submission_date", "deadline"},
		fetch:   (*store.Store).FetchApplications,
		all:     (*store.Store).AllApplications,
		fields:  applicationFields,
		create:  (*store.Store).CreateApplication,
	}
	emailList = listSpec{
		heading:  "Emails",
		noun:     "Email",
		path:     "/emails",
		columns:  []string{"subject", "receiver", "is_sent", "sent_at"},
		fetch:    (*store.Store).FetchEmails,
		all:      (*store.Store).AllEmails,
		sendable: true,
	}
	documentList = listSpec{
		heading: "Documents",
		noun:    "Document",
		path:    "/documents",
		columns: []string{"name", "type", "application_id", "uploaded_at"},
		fetch:   (*store.Store).FetchDocuments,
		all:     (*store.Store).AllDocuments,
	}
)

type listData struct {
	Heading string
	Noun    string
	Path    string
	Base    string
	Columns []string
	Records []domain.Record
	Fields  []formField
	Form    map[string]string
	CanSend bool
}

func (s *Server) listView(spec listSpec) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods := []string{http.MethodGet}
		if spec.create != nil {
			methods = append(methods, http.MethodPost)
		}
		if !allow(w, r, methods...) {
			return
		}
		if r.Method == http.MethodPost {
			s.createRecord(w, r, spec)
			return
		}
		spec.fetch(s.store, r.Context())
		s.render(w, r, "list", http.StatusOK, page{Data: s.listData(spec, nil)})
	})
}

func (s *Server) listData(spec listSpec, form map[string]string) listData {
	return listData{
		Heading: spec.heading,
		Noun:    spec.noun,
		Path:    spec.path,
		Base:    spec.base,
		Columns: spec.columns,
		Records: spec.all(s.store),
		Fields:  spec.fields,
		Form:    form,
		CanSend: spec.sendable && s.smtp != nil,
	}
}

// createRecord adds a record from the list page form and opens its detail
// page. A rejected form is shown again with what was typed.
func (s *Server) createRecord(w http.ResponseWriter, r *http.Request, spec listSpec) {
	body, form, err := formBody(r, spec.fields, true)
	if err != nil {
		s.render(w, r, "list", http.StatusBadRequest, page{Error: err.Error(), Data: s.listData(spec, form)})
		return
	}
	rec := spec.create(s.store, r.Context(), body)
	if rec == nil {
		s.render(w, r, "list", http.StatusBadGateway, page{
			Error: "Could not create the " + strings.ToLower(spec.noun),
			Data:  s.listData(spec, form),
		})
		return
	}
	seeOther(w, r, spec.base+url.PathEscape(rec.ID()), spec.noun+" created")
}

// viewEmails is the email list plus the "send" action on saved emails.
func (s *Server) viewEmails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.listView(emailList).ServeHTTP(w, r)
		return
	}
	id := strings.TrimSpace(r.PostFormValue("email_id"))
	if r.PostFormValue("action") != "send" || id == "" {
		http.Error(w, "action=send and email_id are required", http.StatusBadRequest)
		return
	}
	if s.smtp == nil {
		seeOther(w, r, emailList.path, "Sending is not configured")
		return
	}
	if s.store.SendEmail(r.Context(), id, *s.smtp) == nil {
		seeOther(w, r, emailList.path, "Could not send the email")
		return
	}
	s.log.WithField("email_id", id).Info("email sent")
	seeOther(w, r, emailList.path, "Email sent")
}

// --- details -------------------------------------------------------------

type detailSpec struct {
	heading string
	back    string
	fields  []formField
	fetch   func(*store.Store, context.Context, string) domain.Record
	update  func(*store.Store, context.Context, string, any) domain.Record
	remove  func(*store.Store, context.Context, string) bool
}

var (
	schoolDetail = detailSpec{
		heading: "School",
		back:    "/schools",
		fields:  schoolFields,
		fetch:   (*store.Store).FetchSchoolByID,
		update:  (*store.Store).UpdateSchool,
		remove:  (*store.Store).DeleteSchool,
	}
	professorDetail = detailSpec{
		heading: "Professor",
		back:    "/professors",
		fields:  professorFields,
		fetch:   (*store.Store).FetchProfessorByID,
		update:  (*store.Store).UpdateProfessor,
		remove:  (*store.Store).DeleteProfessor,
	}
	applicationDetail = detailSpec{
		heading: "Application",
		back:    "/applications",
		fields:  applicationEditFields,
		fetch:   (*store.Store).FetchApplicationByID,
		update:  (*store.Store).UpdateApplication,
		remove:  (*store.Store).DeleteApplication,
	}
)

type detailData struct {
	Heading string
	Back    string
	ID      string
	Record  domain.Record
	Fields  []formField

	// Application only.
	CanExport    bool
	NotionPageID string
}

func (s *Server) detailView(spec detailSpec) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allow(w, r, http.MethodGet, http.MethodPost) {
			return
		}
		id := routeParam(r, "id")
		if r.Method == http.MethodPost {
			s.detailAction(w, r, spec, id)
			return
		}
		s.render(w, r, "detail", http.StatusOK, page{Data: s.detailData(r.Context(), spec, id)})
	})
}

func (s *Server) detailData(ctx context.Context, spec detailSpec, id string) detailData {
	return detailData{
		Heading: spec.heading,
		Back:    spec.back,
		ID:      id,
		Record:  spec.fetch(s.store, ctx, id),
		Fields:  spec.fields,
	}
}

// detailAction handles the edit and delete forms of a detail page.
func (s *Server) detailAction(w http.ResponseWriter, r *http.Request, spec detailSpec, id string) {
	ctx := r.Context()
	self := spec.back + "/" + url.PathEscape(id)
	noun := strings.ToLower(spec.heading)

	switch r.PostFormValue("action") {
	case "update":
		patch, _, err := formBody(r, spec.fields, false)
		if err != nil {
			seeOther(w, r, self, err.Error())
			return
		}
		if spec.update(s.store, ctx, id, patch) == nil {
			seeOther(w, r, self, "Could not save the "+noun)
			return
		}
		seeOther(w, r, self, spec.heading+" saved")
	case "delete":
		if !spec.remove(s.store, ctx, id) {
			seeOther(w, r, self, "Could not delete the "+noun)
			return
		}
		s.log.WithFields(logrus.Fields{"resource": noun, "id": id}).Info("record deleted")
		seeOther(w, r, spec.back, spec.heading+" deleted")
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (s *Server) viewApplication(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()
	id := routeParam(r, "id")

	if r.Method == http.MethodPost {
		if r.PostFormValue("action") == "export" {
			s.exportApplication(w, r, id)
			return
		}
		s.detailAction(w, r, applicationDetail, id)
		return
	}

	data := s.detailData(ctx, applicationDetail, id)
	data.CanExport = s.exporter != nil
	if s.exports != nil {
		pageID, err := s.exports.NotionExport(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("application_id", id).Warn("could not load export record")
		}
		data.NotionPageID = pageID
	}
	s.render(w, r, "detail", http.StatusOK, page{Data: data})
}

func (s *Server) exportApplication(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	back := "/applications/" + url.PathEscape(id)

	if s.exporter == nil {
		seeOther(w, r, back, "Notion export is not configured")
		return
	}
	app := s.store.FetchApplicationByID(ctx, id)
	if app == nil {
		seeOther(w, r, back, "Could not load the application")
		return
	}

	pageID, err := s.exporter.ExportApplication(ctx, app, nil)
	if err != nil {
		s.log.WithError(err).WithField("application_id", id).Error("notion export failed")
		seeOther(w, r, back, "Notion export failed")
		return
	}
	s.log.WithFields(logrus.Fields{"application_id": id, "page_id": pageID}).Info("exported application to notion")

	// Remembering the page is best effort; the page exists either way.
	if s.exports != nil {
		if err := s.exports.SaveNotionExport(ctx, id, pageID); err != nil {
			s.log.WithError(err).WithField("application_id", id).Warn("could not save export record")
		}
	}
	seeOther(w, r, back, "Exported to Notion")
}

func (s *Server) viewNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "notfound", http.StatusNotFound, page{})
}
