// Package view renders the server-side HTML pages.  Templates are embedded
// in the binary; each page is parsed together with layout.html.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.html
var files embed.FS

// Page template names accepted by Render.
const (
	LoginTemplate     = "login.html"
	DashboardTemplate = "dashboard.html"
	RatingsTemplate   = "ratings.html"
	AdminTemplate     = "admin.html"
)

// Renderer implements echo.Renderer.
type Renderer struct {
	pages map[string]*template.Template
}

var md = goldmark.New()

// Markdown converts a film synopsis to HTML.  Raw HTML in the source is
// dropped by goldmark's default renderer.
func Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// Stars renders a 1-5 score as filled and empty stars.
func Stars(score int) string {
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}
	return strings.Repeat("★", score) + strings.Repeat("☆", 5-score)
}

var funcs = template.FuncMap{
	"markdown": Markdown,
	"stars":    Stars,
	"avg":      func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"datetime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	},
}

// New parses every page with the shared layout.
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{LoginTemplate, DashboardTemplate, RatingsTemplate, AdminTemplate} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// MustNew is New for program start-up and tests.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
