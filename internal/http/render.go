package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"finwise/internal/auth"
	"finwise/internal/core"
	"finwise/internal/log"
	appweb "finwise/web"
)

const layoutFile = "templates/layout.html"

var templateFuncs = template.FuncMap{
	"money": func(m core.Money) string { return m.String() },
	"date":  func(d core.Date) string { return d.String() },
}

// parseTemplates pairs the layout with every page so each page can define
// its own "content" block.
func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	out := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		if page == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, layoutFile, page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		out[strings.TrimSuffix(path.Base(page), ".html")] = t
	}
	return out, nil
}

// Notice is a one-shot status message carried in the ?notice= query
// parameter after a redirect.
type Notice struct {
	Kind    string
	Message string
}

var notices = map[string]Notice{
	"welcome":               {"success", "Welcome back to FinWise!"},
	"account_created":       {"success", "Account created successfully! Please log in."},
	"logged_out":            {"success", "Logged out successfully"},
	"expense_added":         {"success", "Expense added successfully!"},
	"expense_deleted":       {"success", "Transaction deleted successfully"},
	"profile_updated":       {"success", "Profile updated successfully"},
	"notifications_updated": {"success", "Notification preferences updated"},
	"theme_updated":         {"success", "Theme updated"},
	"account_deleted":       {"info", "Your account and all its data were deleted"},
	"no_data":               {"info", "No data to export"},
}

func noticeFromRequest(r *http.Request) *Notice {
	if n, ok := notices[r.URL.Query().Get("notice")]; ok {
		return &n
	}
	return nil
}

func withNotice(target, key string) string {
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + "notice=" + key
}

// page is the data every template receives.
type page struct {
	Title  string
	User   *core.User
	Theme  core.Theme
	Notice *Notice
	Error  string
	Data   any
}

func (s *Server) newPage(r *http.Request, title string, data any) page {
	p := page{Title: title, Theme: core.ThemeLight, Notice: noticeFromRequest(r), Data: data}
	if u, ok := auth.UserFromContext(r.Context()); ok {
		p.User = &u
		if st, err := s.deps.Settings.Get(r.Context(), u.ID); err == nil {
			p.Theme = st.Theme
		}
	}
	return p
}

// render executes the named page into a buffer first so a template error
// never produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, status int, p page) {
	t, ok := s.templates[name]
	if !ok {
		s.internalError(w, r, fmt.Errorf("template %q not found", name))
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, path.Base(layoutFile), p); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender,
			"template", name)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, "error", status, s.newPage(r, http.StatusText(status), map[string]any{
		"Status":  status,
		"Message": message,
	}))
}
