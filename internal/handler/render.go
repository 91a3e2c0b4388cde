package handler

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/prperemyshlev/page-manager/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Renderer executes one template set per page, each parsed together with the
// shared layout. It implements gin's render.HTMLRender.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer parses the embedded page templates.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		base := path.Base(file)
		if base == layoutFile {
			continue
		}

		t, err := template.New(base).Funcs(templateFuncs).ParseFS(templateFS, "templates/"+layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", base, err)
		}
		pages[strings.TrimSuffix(base, ".html")] = t
	}

	return &Renderer{pages: pages}, nil
}

// Instance implements render.HTMLRender.
func (r *Renderer) Instance(name string, data any) render.Render {
	t, ok := r.pages[name]
	if !ok {
		t = r.pages["error"]
		data = view{Title: "Error", Data: errorData{Message: fmt.Sprintf("page %q not found", name)}}
	}
	return render.HTML{Template: t, Name: "layout", Data: data}
}

var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time, prefs domain.Preferences) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(prefs.GoLayout())
	},
	"formatDate": func(t *time.Time) string {
		if t == nil {
			return "Never"
		}
		return t.Format("2006-01-02")
	},
	"truncate": domain.Truncate,
	"percent": func(v float64) string {
		return fmt.Sprintf("%.2f%%", v)
	},
	"tokenStatus": func(a *domain.FacebookAccount) string {
		return a.TokenStatus(time.Now())
	},
	"themeClass": func(theme string) string {
		return "theme-" + strings.ToLower(theme)
	},
}
