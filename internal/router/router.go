// Package router holds the console route table and turns it into a
// gorilla/mux router. Every navigation gets its page title before the view
// runs; that is the only thing the router does besides dispatching.
package router

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// AppName is the page title when a route has none, and the title suffix
// otherwise.
const AppName = "PhD Application Manager"

// Route names, used as view keys.
const (
	Home              = "Home"
	SchoolList        = "SchoolList"
	SchoolDetail      = "SchoolDetail"
	ProfessorList     = "ProfessorList"
	ProfessorDetail   = "ProfessorDetail"
	ApplicationList   = "ApplicationList"
	ApplicationDetail = "ApplicationDetail"
	EmailList         = "EmailList"
	EmailCompose      = "EmailCompose"
	DocumentList      = "DocumentList"
	Search            = "Search"
	Settings          = "Settings"
	NotFound          = "NotFound"
)

// Route is one entry of the table. An empty Path is the catch-all.
type Route struct {
	Path  string
	Name  string
	Title string
}

// Routes is the console route table, matched in order.
var Routes = []Route{
	{Path: "/", Name: Home, Title: "Home"},
	{Path: "/schools", Name: SchoolList, Title: "Schools"},
	{Path: "/schools/{id}", Name: SchoolDetail, Title: "School Detail"},
	{Path: "/professors", Name: ProfessorList, Title: "Professors"},
	{Path: "/professors/{id}", Name: ProfessorDetail, Title: "Professor Detail"},
	{Path: "/applications", Name: ApplicationList, Title: "Applications"},
	{Path: "/applications/{id}", Name: ApplicationDetail, Title: "Application Detail"},
	{Path: "/emails", Name: EmailList, Title: "Emails"},
	{Path: "/emails/compose", Name: EmailCompose, Title: "Compose Email"},
	{Path: "/documents", Name: DocumentList, Title: "Documents"},
	{Path: "/search", Name: Search, Title: "Search"},
	{Path: "/settings", Name: Settings, Title: "Settings"},
	{Path: "", Name: NotFound, Title: "Page Not Found"},
}

// PageTitle applies the title rule to a route title.
func PageTitle(title string) string {
	if title == "" {
		return AppName
	}
	return title + " - " + AppName
}

// Navigation is what the router knows about the current request.
type Navigation struct {
	Name   string
	Path   string
	Title  string
	Params map[string]string
}

type navKey struct{}

// FromContext returns the navigation stored by the router, if any.
func FromContext(ctx context.Context) (Navigation, bool) {
	nav, ok := ctx.Value(navKey{}).(Navigation)
	return nav, ok
}

// Views maps route names to their handlers. Routes without a view answer 404.
type Views map[string]http.Handler

// Observer is called on every navigation after the title is set.
type Observer func(Navigation)

type Router struct {
	mux    *mux.Router
	titles map[string]string
}

// New builds the router. The title hook is installed here, once, as
// middleware; observers run after it in the order given.
func New(views Views, observers ...Observer) *Router {
	rt := &Router{
		mux:    mux.NewRouter().StrictSlash(true),
		titles: make(map[string]string, len(Routes)),
	}
	for _, r := range Routes {
		rt.titles[r.Name] = r.Title
		h, ok := views[r.Name]
		if !ok {
			h = http.NotFoundHandler()
		}
		if r.Path == "" {
			rt.mux.PathPrefix("/").Handler(h).Name(r.Name)
			continue
		}
		rt.mux.Handle(r.Path, h).Name(r.Name)
	}
	rt.mux.Use(rt.beforeEach(observers))
	return rt
}

func (rt *Router) beforeEach(observers []Observer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nav := rt.navigation(r)
			for _, o := range observers {
				o(nav)
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), navKey{}, nav)))
		})
	}
}

func (rt *Router) navigation(r *http.Request) Navigation {
	nav := Navigation{Path: r.URL.Path, Params: mux.Vars(r)}
	if cur := mux.CurrentRoute(r); cur != nil {
		nav.Name = cur.GetName()
	}
	nav.Title = PageTitle(rt.titles[nav.Name])
	return nav
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Resolve matches path against the table without running a view and returns
// the navigation a request for it would get.
func (rt *Router) Resolve(path string) Navigation {
	u, err := url.Parse(path)
	if err != nil {
		return Navigation{Path: path, Name: NotFound, Title: PageTitle(rt.titles[NotFound])}
	}
	req := &http.Request{Method: http.MethodGet, URL: u, Header: http.Header{}}
	var match mux.RouteMatch
	nav := Navigation{Path: u.Path}
	if rt.mux.Match(req, &match) && match.Route != nil {
		nav.Name = match.Route.GetName()
		nav.Params = match.Vars
	}
	nav.Title = PageTitle(rt.titles[nav.Name])
	return nav
}
