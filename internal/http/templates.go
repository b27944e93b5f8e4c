package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cdim-evaluator/internal/presenter"
	"cdim-evaluator/internal/service/session"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"bytes": func(n int64) string {
		if n < 0 {
			n = 0
		}
		return humanize.IBytes(uint64(n))
	},
	"ago":   func(t time.Time) string { return humanize.Time(t) },
	"lower": strings.ToLower,
}).ParseFS(embeddedFiles, "templates/*.html"))

// pageData is the model of the single-page view. Page is nil while no evaluation is loaded.
type pageData struct {
	Theme    session.Theme
	Status   string
	Failure  *session.Failure
	Session  *session.Session
	Page     *presenter.Page
	MaxBytes int64
}

func (s *Server) renderPage(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.logger.Error().Err(err).Msg("Template error")
		http.Error(w, "Template rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug().Err(err).Msg("Error writing page")
	}
}
