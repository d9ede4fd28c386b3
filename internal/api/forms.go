package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/UninstallAll/PhDAuto/internal/domain"
	"github.com/UninstallAll/PhDAuto/internal/store"
)

// --- record forms --------------------------------------------------------

// formField is one input of a create or edit form. Values go to the backend
// as strings unless Int is set.
type formField struct {
	Name     string
	Label    string
	Int      bool
	Required bool
}

var (
	schoolFields = []formField{
		{Name: "name", Label: "Name", Required: true},
		{Name: "department", Label: "Department"},
		{Name: "program", Label: "Program"},
		{Name: "location", Label: "Location"},
		{Name: "website", Label: "Website"},
		{Name: "application_start", Label: "Applications open"},
		{Name: "application_deadline", Label: "Deadline"},
		{Name: "notes", Label: "Notes"},
	}
	professorFields = []formField{
		{Name: "name", Label: "Name", Required: true},
		{Name: "email", Label: "Email", Required: true},
		{Name: "research_area", Label: "Research area"},
		{Name: "website", Label: "Website"},
		{Name: "notes", Label: "Notes"},
	}
	applicationFields = []formField{
		{Name: "school_id", Label: "School ID", Int: true, Required: true},
		{Name: "professor_id", Label: "Professor ID", Int: true},
		{Name: "status", Label: "Status"},
		{Name: "submission_date", Label: "Submitted"},
		{Name: "result_date", Label: "Result"},
		{Name: "cv_path", Label: "CV path"},
		{Name: "ps_path", Label: "Statement path"},
		{Name: "notes", Label: "Notes"},
	}
	// The backend does not move an application to another school.
	applicationEditFields = applicationFields[2:]
)

// formBody collects the submitted fields into a backend payload. Blank
// fields are left out, so on edit they keep their stored value.
func formBody(r *http.Request, fields []formField, create bool) (map[string]any, map[string]string, error) {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		values[f.Name] = strings.TrimSpace(r.PostFormValue(f.Name))
	}

	body := map[string]any{}
	for _, f := range fields {
		v := values[f.Name]
		if v == "" {
			if create && f.Required {
				return nil, values, errors.Errorf("%s is required", f.Label)
			}
			continue
		}
		if !f.Int {
			body[f.Name] = v
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, values, errors.Errorf("%s must be a number", f.Label)
		}
		body[f.Name] = n
	}
	if !create && len(body) == 0 {
		return nil, values, errors.New("nothing to save")
	}
	return body, values, nil
}

// --- compose -------------------------------------------------------------

// newEmail is the backend's email create payload.
type newEmail struct {
	ApplicationID int    `json:"application_id"`
	Subject       string `json:"subject"`
	Content       string `json:"content"`
	Sender        string `json:"sender"`
	Receiver      string `json:"receiver"`
	IsSent        bool   `json:"is_sent"`
}

type composeData struct {
	ProfessorID   string
	ApplicationID string
	Sender        string
	Receiver      string
	Subject       string
	Content       string
	Background    string
	Interest      string
	Professor     domain.Record
}

func (s *Server) viewCompose(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()
	u := s.store.User()

	if r.Method == http.MethodGet {
		data := composeData{
			ProfessorID:   r.URL.Query().Get("professor_id"),
			ApplicationID: r.URL.Query().Get("application_id"),
			Sender:        u.Email,
		}
		if data.ProfessorID != "" {
			data.Professor = s.store.FetchProfessorByID(ctx, data.ProfessorID)
			data.Receiver = data.Professor.Str("email")
		}
		s.render(w, r, "compose", http.StatusOK, page{Data: data})
		return
	}

	data := composeData{
		ProfessorID:   strings.TrimSpace(r.PostFormValue("professor_id")),
		ApplicationID: strings.TrimSpace(r.PostFormValue("application_id")),
		Sender:        strings.TrimSpace(r.PostFormValue("sender")),
		Receiver:      strings.TrimSpace(r.PostFormValue("receiver")),
		Subject:       r.PostFormValue("subject"),
		Content:       r.PostFormValue("content"),
		Background:    r.PostFormValue("background"),
		Interest:      r.PostFormValue("research_interest"),
	}

	switch r.PostFormValue("action") {
	case "draft":
		s.draftEmail(w, r, data, u)
	case "save", "":
		s.saveEmail(w, r, data)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
	}
}

func (s *Server) draftEmail(w http.ResponseWriter, r *http.Request, data composeData, u domain.User) {
	ctx := r.Context()
	if data.ProfessorID == "" {
		s.render(w, r, "compose", http.StatusBadRequest, page{Error: "Choose a professor to draft for", Data: data})
		return
	}
	data.Professor = s.store.FetchProfessorByID(ctx, data.ProfessorID)
	if data.Professor == nil {
		s.render(w, r, "compose", http.StatusBadGateway, page{Error: "Could not load the professor", Data: data})
		return
	}
	if data.Receiver == "" {
		data.Receiver = data.Professor.Str("email")
	}

	student := domain.StudentInfo{
		Name:             u.Name,
		Email:            u.Email,
		Background:       data.Background,
		ResearchInterest: data.Interest,
	}

	var (
		draft domain.EmailDraft
		err   error
	)
	if s.drafter != nil {
		draft, err = s.drafter.DraftEmail(ctx, data.Professor, student)
	} else {
		draft, err = s.store.GenerateEmailDraft(ctx, data.Professor, student)
	}
	if err != nil {
		s.log.WithError(err).WithField("professor_id", data.ProfessorID).Error("draft failed")
		s.render(w, r, "compose", http.StatusBadGateway, page{Error: "Draft generation failed", Data: data})
		return
	}

	data.Subject = draft.Subject
	data.Content = draft.Content
	s.render(w, r, "compose", http.StatusOK, page{Notice: "Draft ready, review before saving", Data: data})
}

func (s *Server) saveEmail(w http.ResponseWriter, r *http.Request, data composeData) {
	appID, err := strconv.Atoi(data.ApplicationID)
	if err != nil || appID <= 0 {
		s.render(w, r, "compose", http.StatusBadRequest, page{Error: "A numeric application id is required", Data: data})
		return
	}
	if strings.TrimSpace(data.Subject) == "" || data.Receiver == "" {
		s.render(w, r, "compose", http.StatusBadRequest, page{Error: "Subject and receiver are required", Data: data})
		return
	}

	rec := s.store.CreateEmail(r.Context(), newEmail{
		ApplicationID: appID,
		Subject:       data.Subject,
		Content:       data.Content,
		Sender:        data.Sender,
		Receiver:      data.Receiver,
	})
	if rec == nil {
		s.render(w, r, "compose", http.StatusBadGateway, page{Error: "Could not save the email", Data: data})
		return
	}
	seeOther(w, r, "/emails", "Email saved")
}

// --- search --------------------------------------------------------------

var searchKinds = []string{"school", "professor", "deadlines", "publications"}

type searchData struct {
	Kinds   []string
	Type    string
	Form    map[string]string
	Results domain.SearchResults
}

func (s *Server) viewSearch(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	q := r.URL.Query()
	kind := q.Get("type")
	data := searchData{
		Kinds: searchKinds,
		Type:  kind,
		Form:  map[string]string{},
	}
	for k := range q {
		data.Form[k] = q.Get(k)
	}

	if kind == "" {
		data.Results = s.store.SearchResults()
		s.render(w, r, "search", http.StatusOK, page{Data: data})
		return
	}

	var (
		raw     json.RawMessage
		missing string
	)
	switch kind {
	case "school":
		if q.Get("q") == "" {
			missing = "a school name"
			break
		}
		raw = s.store.SearchSchools(ctx, q.Get("q"))
	case "professor":
		if q.Get("name") == "" {
			missing = "a professor name"
			break
		}
		raw = s.store.SearchProfessors(ctx, store.ProfessorQuery{Name: q.Get("name"), School: q.Get("school")})
	case "deadlines":
		if q.Get("school") == "" || q.Get("program") == "" {
			missing = "a school and a program"
			break
		}
		raw = s.store.SearchDeadlines(ctx, q.Get("school"), q.Get("program"))
	case "publications":
		if q.Get("professor") == "" {
			missing = "a professor name"
			break
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		raw = s.store.SearchPublications(ctx, q.Get("professor"), limit)
	default:
		data.Results = s.store.SearchResults()
		s.render(w, r, "search", http.StatusBadRequest, page{Error: "Unknown search type", Data: data})
		return
	}

	if missing != "" {
		data.Results = s.store.SearchResults()
		s.render(w, r, "search", http.StatusBadRequest, page{Error: "Enter " + missing, Data: data})
		return
	}

	p := page{}
	if raw == nil {
		p.Error = "Search failed, showing previous results"
	} else {
		s.store.SetSearchResults(domain.SearchResults{kind: raw})
	}
	data.Results = s.store.SearchResults()
	p.Data = data
	s.render(w, r, "search", http.StatusOK, p)
}

// --- settings ------------------------------------------------------------

func (s *Server) viewSettings(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		s.render(w, r, "settings", http.StatusOK, page{Data: s.store.User()})
		return
	}

	if isJSON(r) {
		var patch domain.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		if err := patch.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.store.UpdateSettings(r.Context(), patch))
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	patch, err := settingsPatchFromForm(r)
	if err != nil {
		s.render(w, r, "settings", http.StatusBadRequest, page{Error: err.Error(), Data: s.store.User()})
		return
	}

	u := s.store.User()
	profileChanged := false
	if v, ok := lastValue(r, "name"); ok && v != u.Name {
		u.Name, profileChanged = v, true
	}
	if v, ok := lastValue(r, "email"); ok && v != u.Email {
		u.Email, profileChanged = v, true
	}
	if profileChanged {
		s.store.SetUser(u)
	}

	s.store.UpdateSettings(r.Context(), patch)
	seeOther(w, r, "/settings", "Settings saved")
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// lastValue returns the last submitted value of a form field. Checkboxes are
// paired with a hidden "false" input, so the last value wins.
func lastValue(r *http.Request, key string) (string, bool) {
	vs, ok := r.PostForm[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return strings.TrimSpace(vs[len(vs)-1]), true
}

// settingsPatchFromForm builds a patch from the fields that were submitted;
// absent fields stay nil and keep their current value.
func settingsPatchFromForm(r *http.Request) (domain.SettingsPatch, error) {
	var patch domain.SettingsPatch
	for _, f := range []struct {
		key string
		dst **bool
	}{
		{"emailNotifications", &patch.EmailNotifications},
		{"pushNotifications", &patch.PushNotifications},
	} {
		v, ok := lastValue(r, f.key)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.SettingsPatch{}, errors.Errorf("%s must be true or false", f.key)
		}
		*f.dst = &b
	}
	if v, ok := lastValue(r, "colorTheme"); ok {
		patch.ColorTheme = &v
	}
	if err := patch.Validate(); err != nil {
		return domain.SettingsPatch{}, err
	}
	return patch, nil
}
