package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KOFI-GYIMAH/github-wrapped/internal/models"
	"github.com/KOFI-GYIMAH/github-wrapped/internal/service"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/errors"
	"github.com/KOFI-GYIMAH/github-wrapped/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	DefaultNavCacheSize = 512
	DefaultNavCacheTTL  = 30 * time.Minute
)

type Resolver interface {
	ResolveUser(ctx context.Context, rawUsername string) (*service.Resolution, error)
	AverageStats(ctx context.Context) (models.AverageStats, error)
}

type step struct {
	Number int
	Slug   string
	Title  string
}

var steps = []step{
	{1, "first-commit", "Where it all began"},
	{2, "total-commits", "Commits"},
	{3, "top-repos", "Top repositories"},
	{4, "streak", "Coding streak"},
	{5, "languages", "Top languages"},
	{6, "impact", "Community impact"},
	{7, "summary", "Your year in review"},
}

type pageData struct {
	Title    string
	Year     int
	Username string
	Error    string
	User     *models.GitHubUser
	Step     step
	Total    int
	Prev     int
	Next     int
	Stale    bool
	Averages *models.AverageStats
}

type navEntry struct {
	user  *models.GitHubUser
	stale bool
}

// * Handler serves the presentation steps. Resolved records are kept in an expiring LRU so
// * moving between steps does not hit the store; a miss resolves again through the service.
type Handler struct {
	service Resolver
	year    int
	nav     *expirable.LRU[string, navEntry]
	pages   map[string]*template.Template
}

func NewHandler(service Resolver, year, navSize int, navTTL time.Duration) (*Handler, error) {
	if navSize <= 0 {
		navSize = DefaultNavCacheSize
	}
	if navTTL <= 0 {
		navTTL = DefaultNavCacheTTL
	}

	pages, err := parsePages("index", "step", "share", "error")
	if err != nil {
		return nil, err
	}

	return &Handler{
		service: service,
		year:    year,
		nav:     expirable.NewLRU[string, navEntry](navSize, nil, navTTL),
		pages:   pages,
	}, nil
}

func parsePages(names ...string) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"date":    func(t time.Time) string { return t.Format("January 2, 2006") },
		"inc":     func(i int) int { return i + 1 },
		"compare": compare,
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

func compare(value, average int) string {
	switch {
	case value > average:
		return "above"
	case value < average:
		return "below"
	default:
		return "right at"
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.index).Methods("GET")
	r.HandleFunc("/wrapped", h.submit).Methods("POST")
	r.HandleFunc("/wrapped/{username}/share", h.share).Methods("GET")
	r.HandleFunc("/wrapped/{username}/{step:[0-9]+}", h.step).Methods("GET")
}

func (h *Handler) render(w http.ResponseWriter, status int, page string, data pageData) {
	data.Year = h.year
	if data.Total == 0 {
		data.Total = len(steps)
	}

	// * buffered so a template failure can still become a clean 500
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "base", data); err != nil {
		logger.Error("failed to render %s template: %v", page, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	kind := errors.KindOf(err)
	h.render(w, errors.StatusForKind(kind), "error", pageData{
		Title: "Something went wrong",
		Error: errors.UserMessage(kind),
	})
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, http.StatusOK, "index", pageData{Title: "Unwrap your year"})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("username")

	res, err := h.service.ResolveUser(r.Context(), raw)
	if err != nil {
		kind := errors.KindOf(err)
		logger.Warn("wrapped form lookup for %q failed: %s", raw, kind)
		h.render(w, errors.StatusForKind(kind), "index", pageData{
			Title:    "Unwrap your year",
			Username: raw,
			Error:    errors.UserMessage(kind),
		})
		return
	}

	h.remember(res)
	http.Redirect(w, r, "/wrapped/"+url.PathEscape(res.User.Username)+"/1", http.StatusSeeOther)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	n, err := strconv.Atoi(vars["step"])
	if err != nil || n < 1 || n > len(steps) {
		h.renderError(w, errors.Classified(errors.KindNotFound, "Unknown step", fmt.Sprintf("step %q does not exist", vars["step"]), nil))
		return
	}

	entry, err := h.lookup(r.Context(), vars["username"])
	if err != nil {
		h.renderError(w, err)
		return
	}

	current := steps[n-1]
	data := pageData{
		Title: current.Title,
		User:  entry.user,
		Step:  current,
		Stale: entry.stale,
	}
	if n > 1 {
		data.Prev = n - 1
	}
	if n < len(steps) {
		data.Next = n + 1
	}

	if current.Slug == "total-commits" || current.Slug == "streak" {
		if avg, err := h.service.AverageStats(r.Context()); err != nil {
			logger.Warn("averages unavailable for step %d: %v", n, err)
		} else if avg.UserCount > 0 {
			data.Averages = &avg
		}
	}

	h.render(w, http.StatusOK, "step", data)
}

func (h *Handler) share(w http.ResponseWriter, r *http.Request) {
	entry, err := h.lookup(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.renderError(w, err)
		return
	}

	h.render(w, http.StatusOK, "share", pageData{
		Title: "@" + entry.user.Username,
		User:  entry.user,
		Stale: entry.stale,
	})
}

func (h *Handler) remember(res *service.Resolution) navEntry {
	entry := navEntry{user: res.User, stale: res.Outcome == service.OutcomeStaleFallback}
	h.nav.Add(res.User.Username, entry)
	return entry
}

func (h *Handler) lookup(ctx context.Context, raw string) (navEntry, error) {
	if entry, ok := h.nav.Get(models.NormalizeUsername(raw)); ok {
		return entry, nil
	}

	res, err := h.service.ResolveUser(ctx, raw)
	if err != nil {
		return navEntry{}, err
	}
	return h.remember(res), nil
}
