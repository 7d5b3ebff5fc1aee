package web

// errors.go turns service errors into responses. The technical error is
// logged with the request ID; the client receives the mapped user message
// and its support code.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/gereecole/internal/core"
	"github.com/JonMunkholm/gereecole/internal/logging"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Action  string            `json:"action,omitempty"`
	Code    string            `json:"code"`
	Missing []string          `json:"missing,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// statusFor picks the HTTP status of a service error.
func statusFor(err error) int {
	var reqErr *core.RequestError
	var missingErr *core.MissingColumnsError
	var decodeErr *core.DecodeError

	switch {
	case errors.Is(err, core.ErrRunNotFound), errors.Is(err, core.ErrUnknownKind):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrRunInProgress):
		return http.StatusConflict
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.As(err, &missingErr), errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped message. JSON is used for
// API routes and clients that ask for it, plain text otherwise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if !wantsJSON(r) {
		http.Error(w, userMsg.Message+" ("+userMsg.Code+")", status)
		return
	}

	resp := ErrorResponse{
		Error:   err.Error(),
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	if status >= http.StatusInternalServerError {
		resp.Error = userMsg.Message
	}

	var missingErr *core.MissingColumnsError
	if errors.As(err, &missingErr) {
		resp.Missing = missingErr.Missing
	}
	var reqErr *core.RequestError
	if errors.As(err, &reqErr) {
		resp.Fields = reqErr.Fields
	}

	writeJSON(w, status, resp)
}

// badRequest rejects a malformed HTTP request before it reaches the service.
func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "REQ001",
	})
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
