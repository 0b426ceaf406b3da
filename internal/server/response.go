package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/rileyhilliard/homestats/internal/errors"
)

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Code       int    `json:"code"`
	ErrorCode  string `json:"error_code,omitempty"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{Code: status, Message: message})
}

// statusFor maps an error code to the HTTP status the API reports.
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrConfig:
		return http.StatusBadRequest
	case errors.ErrNotConfigured:
		return http.StatusServiceUnavailable
	case errors.ErrAuth, errors.ErrTransport, errors.ErrHTTP, errors.ErrDecode, errors.ErrSync:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := APIError{Code: status, ErrorCode: errors.CodeOf(err), Message: errors.Summary(err)}
	var e *errors.Error
	if stderrors.As(err, &e) {
		body.Suggestion = e.Suggestion
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.log.Warn("%s %s: %s", r.Method, r.URL.Path, errors.Summary(err))
	}
	writeJSON(w, status, body)
}
