package store

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

// ProfessorQuery is the professor search form. School is optional and is
// left out of the query string when empty.
type ProfessorQuery struct {
	Name   string `url:"name"`
	School string `url:"school,omitempty"`
}

type schoolQuery struct {
	SchoolName string `url:"school_name"`
}

type deadlineQuery struct {
	SchoolName string `url:"school_name"`
	Program    string `url:"program"`
}

type publicationQuery struct {
	ProfessorName string `url:"professor_name"`
	Limit         int    `url:"limit,omitempty"`
}

type draftRequest struct {
	ProfessorInfo any                `json:"professor_info"`
	StudentInfo   domain.StudentInfo `json:"student_info"`
}

func (s *Store) actionLog(action, resource string) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"action":    action,
		"resource":  resource,
		"action_id": uuid.NewString(),
	})
}

// --- collections ---------------------------------------------------------

func (s *Store) FetchSchools(ctx context.Context) {
	s.fetchCollection(ctx, "schools", true, MutSetSchools, func(st *state, r []domain.Record) { st.schools = r })
}

func (s *Store) FetchProfessors(ctx context.Context) {
	s.fetchCollection(ctx, "professors", true, MutSetProfessors, func(st *state, r []domain.Record) { st.professors = r })
}

func (s *Store) FetchApplications(ctx context.Context) {
	s.fetchCollection(ctx, "applications", true, MutSetApplications, func(st *state, r []domain.Record) { st.applications = r })
}

func (s *Store) FetchEmails(ctx context.Context) {
	s.fetchCollection(ctx, "emails", true, MutSetEmails, func(st *state, r []domain.Record) { st.emails = r })
}

func (s *Store) FetchDocuments(ctx context.Context) {
	s.fetchCollection(ctx, "documents", true, MutSetDocuments, func(st *state, r []domain.Record) { st.documents = r })
}

// FetchNotifications is the one collection fetch that leaves the loading
// flag alone; it runs in the background from the poller.
func (s *Store) FetchNotifications(ctx context.Context) {
	s.fetchCollection(ctx, "notifications", false, MutSetNotifications, func(st *state, r []domain.Record) { st.notifications = r })
}

func (s *Store) fetchCollection(ctx context.Context, resource string, toggleLoading bool, typ MutationType, assign func(*state, []domain.Record)) {
	log := s.actionLog("fetch", resource)
	if toggleLoading {
		s.SetLoading(true)
		defer s.SetLoading(false)
	}

	seq := s.begin(resource)
	var recs []domain.Record
	if err := s.backend.Get(ctx, "/"+resource, nil, &recs); err != nil {
		log.WithError(err).Errorf("failed to fetch %s", resource)
		return
	}
	if !s.commitLatest(resource, seq, Mutation{typ, recs}, func(st *state) { assign(st, recs) }) {
		log.Debugf("dropped superseded %s response", resource)
		return
	}
	log.Debugf("loaded %d %s", len(recs), resource)
}

// --- single records ------------------------------------------------------

// FetchSchoolByID loads one school into the current selection and returns it,
// or returns nil and leaves the selection alone on failure.
func (s *Store) FetchSchoolByID(ctx context.Context, id string) domain.Record {
	return s.fetchOne(ctx, "schools", id, MutSetCurrentSchool, func(st *state, r domain.Record) { st.currentSchool = r })
}

func (s *Store) FetchProfessorByID(ctx context.Context, id string) domain.Record {
	return s.fetchOne(ctx, "professors", id, MutSetCurrentProfessor, func(st *state, r domain.Record) { st.currentProfessor = r })
}

func (s *Store) FetchApplicationByID(ctx context.Context, id string) domain.Record {
	return s.fetchOne(ctx, "applications", id, MutSetCurrentApplication, func(st *state, r domain.Record) { st.currentApplication = r })
}

func (s *Store) fetchOne(ctx context.Context, resource, id string, typ MutationType, assign func(*state, domain.Record)) domain.Record {
	log := s.actionLog("fetch_by_id", resource).WithField("id", id)
	s.SetLoading(true)
	defer s.SetLoading(false)

	slice := "current/" + resource
	seq := s.begin(slice)
	var rec domain.Record
	if err := s.backend.Get(ctx, "/"+resource+"/"+url.PathEscape(id), nil, &rec); err != nil {
		log.WithError(err).Errorf("failed to fetch %s %s", resource, id)
		return nil
	}
	if !s.commitLatest(slice, seq, Mutation{typ, rec}, func(st *state) { assign(st, rec) }) {
		log.Debugf("dropped superseded %s response", resource)
	}
	return rec
}

// --- search --------------------------------------------------------------
//
// Searches hand back the raw response and do not touch SearchResults; the
// caller decides what to commit.

func (s *Store) SearchSchools(ctx context.Context, query string) json.RawMessage {
	return s.search(ctx, "school", "/search/school", schoolQuery{SchoolName: query})
}

func (s *Store) SearchProfessors(ctx context.Context, q ProfessorQuery) json.RawMessage {
	return s.search(ctx, "professor", "/search/professor", q)
}

func (s *Store) SearchDeadlines(ctx context.Context, school, program string) json.RawMessage {
	return s.search(ctx, "deadlines", "/search/deadlines", deadlineQuery{SchoolName: school, Program: program})
}

func (s *Store) SearchPublications(ctx context.Context, professor string, limit int) json.RawMessage {
	return s.search(ctx, "publications", "/search/publications", publicationQuery{ProfessorName: professor, Limit: limit})
}

func (s *Store) search(ctx context.Context, kind, path string, params any) json.RawMessage {
	log := s.actionLog("search", kind)
	s.SetLoading(true)
	defer s.SetLoading(false)

	var out json.RawMessage
	if err := s.backend.Get(ctx, path, params, &out); err != nil {
		log.WithError(err).Errorf("%s search failed", kind)
		return nil
	}
	return out
}

// --- notifications -------------------------------------------------------

// MarkNotificationRead flags one notification as read on the backend and
// reloads the notification list. It reports whether the backend accepted it.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) bool {
	log := s.actionLog("mark_read", "notifications").WithField("id", id)
	if err := s.backend.Put(ctx, "/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		log.WithError(err).Error("failed to mark notification read")
		return false
	}
	s.FetchNotifications(ctx)
	return true
}

// CheckDeadlines asks the backend to raise notifications for deadlines within
// days and returns the ones it created. State is not touched.
func (s *Store) CheckDeadlines(ctx context.Context, days int) []domain.Record {
	log := s.actionLog("check_deadlines", "notifications")
	params := url.Values{"days_threshold": {strconv.Itoa(days)}}
	var created []domain.Record
	if err := s.backend.Post(ctx, "/notifications/check-deadlines", params, nil, &created); err != nil {
		log.WithError(err).Error("deadline check failed")
		return nil
	}
	return created
}

// --- schools, professors, applications ----------------------------------
//
// Writes follow the email pattern: on success the collection is reloaded and
// the backend's record is returned; on failure nothing changes and the
// caller gets nil (or false for deletes).

// CreateSchool adds a school and reloads the school list.
func (s *Store) CreateSchool(ctx context.Context, school any) domain.Record {
	rec := s.create(ctx, "schools", school)
	if rec != nil {
		s.FetchSchools(ctx)
	}
	return rec
}

// UpdateSchool applies patch to one school, makes the result the current
// school and reloads the list.
func (s *Store) UpdateSchool(ctx context.Context, id string, patch any) domain.Record {
	rec := s.update(ctx, "schools", id, patch)
	if rec != nil {
		s.SetCurrentSchool(rec)
		s.FetchSchools(ctx)
	}
	return rec
}

// DeleteSchool removes a school. The backend refuses while applications
// still point at it.
func (s *Store) DeleteSchool(ctx context.Context, id string) bool {
	if !s.remove(ctx, "schools", id) {
		return false
	}
	if s.CurrentSchool().ID() == id {
		s.SetCurrentSchool(nil)
	}
	s.FetchSchools(ctx)
	return true
}

func (s *Store) CreateProfessor(ctx context.Context, professor any) domain.Record {
	rec := s.create(ctx, "professors", professor)
	if rec != nil {
		s.FetchProfessors(ctx)
	}
	return rec
}

func (s *Store) UpdateProfessor(ctx context.Context, id string, patch any) domain.Record {
	rec := s.update(ctx, "professors", id, patch)
	if rec != nil {
		s.SetCurrentProfessor(rec)
		s.FetchProfessors(ctx)
	}
	return rec
}

func (s *Store) DeleteProfessor(ctx context.Context, id string) bool {
	if !s.remove(ctx, "professors", id) {
		return false
	}
	if s.CurrentProfessor().ID() == id {
		s.SetCurrentProfessor(nil)
	}
	s.FetchProfessors(ctx)
	return true
}

func (s *Store) CreateApplication(ctx context.Context, app any) domain.Record {
	rec := s.create(ctx, "applications", app)
	if rec != nil {
		s.FetchApplications(ctx)
	}
	return rec
}

func (s *Store) UpdateApplication(ctx context.Context, id string, patch any) domain.Record {
	rec := s.update(ctx, "applications", id, patch)
	if rec != nil {
		s.SetCurrentApplication(rec)
		s.FetchApplications(ctx)
	}
	return rec
}

func (s *Store) DeleteApplication(ctx context.Context, id string) bool {
	if !s.remove(ctx, "applications", id) {
		return false
	}
	if s.CurrentApplication().ID() == id {
		s.SetCurrentApplication(nil)
	}
	s.FetchApplications(ctx)
	return true
}

func (s *Store) create(ctx context.Context, resource string, body any) domain.Record {
	log := s.actionLog("create", resource)
	s.SetLoading(true)
	defer s.SetLoading(false)

	var rec domain.Record
	if err := s.backend.Post(ctx, "/"+resource+"/", nil, body, &rec); err != nil {
		log.WithError(err).Errorf("failed to create %s", resource)
		return nil
	}
	return rec
}

func (s *Store) update(ctx context.Context, resource, id string, patch any) domain.Record {
	log := s.actionLog("update", resource).WithField("id", id)
	s.SetLoading(true)
	defer s.SetLoading(false)

	var rec domain.Record
	if err := s.backend.Put(ctx, "/"+resource+"/"+url.PathEscape(id), patch, &rec); err != nil {
		log.WithError(err).Errorf("failed to update %s %s", resource, id)
		return nil
	}
	return rec
}

func (s *Store) remove(ctx context.Context, resource, id string) bool {
	log := s.actionLog("delete", resource).WithField("id", id)
	s.SetLoading(true)
	defer s.SetLoading(false)

	if err := s.backend.Delete(ctx, "/"+resource+"/"+url.PathEscape(id), nil); err != nil {
		log.WithError(err).Errorf("failed to delete %s %s", resource, id)
		return false
	}
	return true
}

// --- emails --------------------------------------------------------------

// CreateEmail stores a new email on the backend and reloads the email list.
// It returns the created record, or nil on failure.
func (s *Store) CreateEmail(ctx context.Context, email any) domain.Record {
	rec := s.create(ctx, "emails", email)
	if rec != nil {
		s.FetchEmails(ctx)
	}
	return rec
}

// SendEmail has the backend deliver a saved email over SMTP with creds and
// reloads the email list. It returns the updated email, or nil on failure.
func (s *Store) SendEmail(ctx context.Context, id string, creds domain.SMTPCredentials) domain.Record {
	log := s.actionLog("send", "emails").WithField("id", id)
	s.SetLoading(true)
	var rec domain.Record
	err := s.backend.Post(ctx, "/emails/"+url.PathEscape(id)+"/send", nil, creds, &rec)
	s.SetLoading(false)
	if err != nil {
		log.WithError(err).Error("failed to send email")
		return nil
	}
	s.FetchEmails(ctx)
	return rec
}

// GenerateEmailDraft asks the backend to write an outreach email. Unlike the
// other actions it returns the error so the compose view can say why.
func (s *Store) GenerateEmailDraft(ctx context.Context, professor any, student domain.StudentInfo) (domain.EmailDraft, error) {
	log := s.actionLog("draft", "emails")
	var draft domain.EmailDraft
	err := s.backend.Post(ctx, "/email/generate-draft", nil, draftRequest{ProfessorInfo: professor, StudentInfo: student}, &draft)
	if err != nil {
		log.WithError(err).Error("failed to generate draft")
		return domain.EmailDraft{}, errors.Trace(err)
	}
	return draft, nil
}

// --- settings ------------------------------------------------------------

// UpdateSettings merges patch into the user settings and, when a persister is
// configured, saves the user. Persisting is best effort.
func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) domain.Settings {
	s.UpdateUserSettings(patch)
	u := s.User()
	if s.persister != nil {
		if err := s.persister.SaveUser(ctx, u); err != nil {
			s.actionLog("save", "settings").WithError(err).Warn("could not persist settings")
		}
	}
	return u.Settings
}
