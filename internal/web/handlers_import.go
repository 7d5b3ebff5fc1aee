package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/gereecole/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for the
// form's boundaries and other fields.
const multipartOverhead = 1 << 20

// handleImport accepts a multipart upload and starts a run. Batch-fatal
// problems are answered synchronously; otherwise the run ID is returned
// and rows are processed in the background.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := core.Kind(chi.URLParam(r, "kind"))
	tenant, _ := core.TenantFromContext(r.Context())

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: request over %d bytes", core.ErrFileTooLarge, tooLarge.Limit))
			return
		}
		badRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		badRequest(w, "failed to read file")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	runID, err := s.service.StartImport(ctx, core.ImportRequest{
		Kind:           kind,
		TenantID:       tenant,
		FileName:       header.Filename,
		Data:           data,
		EnrollmentYear: r.FormValue("enrollmentYear"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"runId": runID})
}

// runParam returns the run named in the URL, provided it belongs to the
// requesting tenant. Runs of other tenants are reported as not found.
func (s *Server) runParam(r *http.Request) (string, error) {
	runID := chi.URLParam(r, "runID")
	owner, err := s.service.RunTenant(runID)
	if err != nil {
		return "", err
	}
	if tenant, _ := core.TenantFromContext(r.Context()); tenant != owner {
		return "", fmt.Errorf("%w: %s", core.ErrRunNotFound, runID)
	}
	return runID, nil
}

// handleImportProgress streams run progress via Server-Sent Events. The
// stream ends with a "complete" event carrying the final progress.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"))
		return
	}

	// Clients reconnecting with Last-Event-ID skip rows already reported.
	lastEventID := -1
	if id := r.Header.Get("Last-Event-ID"); id != "" {
		if n, err := strconv.Atoi(id); err == nil {
			lastEventID = n
		}
	}

	progressCh, err := s.service.SubscribeProgress(runID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last core.Progress
	for {
		select {
		case p, ok := <-progressCh:
			if !ok {
				data, _ := json.Marshal(last)
				fmt.Fprintf(w, "event: complete\ndata: %s\n\n", data)
				flusher.Flush()
				return
			}
			last = p
			if p.CurrentRow <= lastEventID && !p.Phase.Done() {
				continue
			}
			data, _ := json.Marshal(p)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", p.CurrentRow, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleImportResult returns the outcome of a finished run.
func (s *Server) handleImportResult(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	outcome, err := s.service.Result(runID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleImportErrors downloads the per-row error report of a finished run.
func (s *Server) handleImportErrors(w http.ResponseWriter, r *http.Request) {
	runID, err := s.runParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	outcome, err := s.service.Result(runID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, core.ErrorReportFileName(outcome)))
	if err := core.WriteErrorReport(w, outcome); err != nil {
		s.respondError(w, r, err)
	}
}

// handleImportQueueStatus reports import slot usage.
func (s *Server) handleImportQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
