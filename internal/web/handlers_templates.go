package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// handleListTemplates returns every import template.
func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Templates())
}

// handleGetTemplate returns the template of one kind.
func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.templateParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// handleDownloadTemplate serves a blank file for a kind. ?format=csv gives
// the header row alone; the default is a workbook.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := s.templateParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	format := core.FormatXLSX
	if f := r.URL.Query().Get("format"); f != "" {
		format = core.Format(f)
	}
	if format != core.FormatXLSX && format != core.FormatCSV {
		badRequest(w, fmt.Sprintf("unsupported format %q, use xlsx or csv", format))
		return
	}

	// Render fully before writing so a failure can still be reported.
	var buf bytes.Buffer
	if err := core.WriteTemplate(&buf, tmpl, format); err != nil {
		s.respondError(w, r, err)
		return
	}

	contentType := "text/csv; charset=utf-8"
	if format == core.FormatXLSX {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.TemplateFileName(tmpl, format)))
	w.Write(buf.Bytes())
}

func (s *Server) templateParam(r *http.Request) (core.ImportTemplate, error) {
	kind, err := core.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		return core.ImportTemplate{}, err
	}
	return s.service.Template(kind)
}
