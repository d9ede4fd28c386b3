package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/UninstallAll/PhDAuto/internal/domain"
	"github.com/UninstallAll/PhDAuto/internal/router"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "list", "detail", "compose", "search", "settings", "notfound"}

var templates = parseTemplates()

func parseTemplates() map[string]*template.Template {
	funcs := template.FuncMap{
		"pretty": prettyJSON,
		"fields": fieldsOf,
	}
	out := make(map[string]*template.Template, len(pages))
	for _, p := range pages {
		out[p] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+p+".html"))
	}
	return out
}

// page is what every template gets. Data is the view's own payload.
type page struct {
	Title   string
	Nav     router.Navigation
	Theme   string
	Loading bool
	Unread  int
	Notice  string
	Error   string
	Data    any
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, p page) {
	nav, _ := router.FromContext(r.Context())
	p.Nav = nav
	p.Title = nav.Title
	if p.Title == "" {
		p.Title = router.PageTitle("")
	}
	p.Theme = s.store.User().Settings.ColorTheme
	p.Loading = s.store.IsLoading()
	p.Unread = len(s.store.UnreadNotifications())
	if p.Notice == "" {
		p.Notice = r.URL.Query().Get("notice")
	}

	var buf bytes.Buffer
	if err := templates[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		s.log.WithError(err).WithField("template", name).Error("render failed")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type field struct {
	Key   string
	Value string
}

// fieldsOf lists the top-level members of a record in backend order.
func fieldsOf(rec domain.Record) []field {
	var out []field
	gjson.ParseBytes(rec).ForEach(func(k, v gjson.Result) bool {
		val := v.String()
		if v.IsObject() || v.IsArray() {
			val = v.Raw
		}
		out = append(out, field{Key: k.String(), Value: val})
		return true
	})
	return out
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
