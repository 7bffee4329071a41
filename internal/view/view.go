package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"go-blog-app/internal/data"
	"go-blog-app/internal/flash"
	"go-blog-app/internal/identity"
	"go-blog-app/internal/session"
)

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
	sessions  session.Manager
	now       func() time.Time
}

// New creates a new View by parsing every page template together with the
// layouts and partials from the given filesystem.
func New(templateFS fs.FS, sm session.Manager) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
		sessions:  sm,
		now:       time.Now,
	}

	var shared []string
	for _, pattern := range []string{"templates/layouts/*.html", "templates/partials/*.html"} {
		files, err := fs.Glob(templateFS, pattern)
		if err != nil {
			return nil, err
		}
		shared = append(shared, files...)
	}

	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		files := append(append([]string(nil), shared...), page)
		// The name of the template is the base name of the page file
		name := filepath.Base(page)
		ts, err := template.New(name).Funcs(v.funcs()).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
	}

	return v, nil
}

// Render executes a page template with status 200.
func (v *View) Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error {
	return v.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes a page template. Every page receives the current
// user as CurrentUser and the pending flash messages as Flashes.
func (v *View) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}
	if data == nil {
		data = make(map[string]interface{})
	}
	data["CurrentUser"] = identity.From(r.Context())
	data["Flashes"] = flash.Pop(r.Context(), v.sessions)
	data["Path"] = r.URL.Path
	data["Query"] = r.URL.Query()

	// Execute the template into a buffer first to catch any errors
	// before writing to the response writer.
	buf := new(bytes.Buffer)
	if err := ts.Execute(buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func (v *View) funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string { return t.Format("January 2, 2006") },
		"isoDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"mediaURL": func(rel *string) string {
			if rel == nil || *rel == "" {
				return ""
			}
			return "/media/" + *rel
		},
		"age": func(p *data.Profile) int { return p.Age(v.now()) },
		// pageURL keeps the current filters and swaps the page number.
		"pageURL": func(q url.Values, n int) string {
			out := url.Values{}
			for k, vals := range q {
				out[k] = append([]string(nil), vals...)
			}
			out.Set("page", strconv.Itoa(n))
			return "?" + out.Encode()
		},
		"hasValue": func(q url.Values, key, want string) bool {
			for _, got := range q[key] {
				if got == want {
					return true
				}
			}
			return false
		},
		"hasID": func(ids []int64, id int64) bool {
			for _, v := range ids {
				if v == id {
					return true
				}
			}
			return false
		},
		"errs": func(e map[string][]string, field string) []string { return e[field] },
	}
}
