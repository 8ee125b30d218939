package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/proportfolio/gallery/internal/media"
	"github.com/proportfolio/gallery/internal/models"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// templateRenderer renders the HTML pages of the gallery
type templateRenderer struct {
	t      *template.Template
	logger *zap.Logger
}

func newTemplateRenderer(logger *zap.Logger) (*templateRenderer, error) {
	t, err := template.New("root").Funcs(template.FuncMap{
		"initial":  func(u *models.User) string { return u.Initial() },
		"imgsrc":   imageSource,
		"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
		"contains": strings.Contains,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &templateRenderer{t: t, logger: logger}, nil
}

// render executes the template into a buffer first, so a failing template never produces half a page
func (r *templateRenderer) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		r.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		r.logger.Warn("failed to write rendered template", zap.String("template", name), zap.Error(err))
	}
}

// imageSource marks image URLs safe for src attributes.
// Only inline images and http(s) URLs pass; anything else renders as an empty src.
func imageSource(s string) template.URL {
	switch {
	case media.IsImageDataURL(s),
		strings.HasPrefix(s, "https://"),
		strings.HasPrefix(s, "http://"):
		return template.URL(s)
	default:
		return ""
	}
}
