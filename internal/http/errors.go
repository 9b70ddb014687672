package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finwise/internal/core"
	"finwise/internal/log"
)

// statusFor maps the domain failure taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case core.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusSeeOther
	default:
		return http.StatusInternalServerError
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusUnprocessableEntity:
		return log.ErrorTypeValidation
	case http.StatusConflict:
		return log.ErrorTypeConflict
	case http.StatusUnauthorized:
		return log.ErrorTypeAuth
	case http.StatusForbidden:
		return log.ErrorTypeForbidden
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeInternal
	}
}

// userMessage is the text shown for a classified error. Internal errors are
// never echoed.
func userMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	case http.StatusUnauthorized:
		return "Invalid email or password"
	case http.StatusForbidden:
		return "Unauthorized action"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Email already registered"
	}
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}

func (s *Server) logFailure(r *http.Request, msg string, err error, status int) {
	l := log.FromContext(r.Context())
	args := []any{log.FieldError, err, log.FieldErrorType, errorType(status), log.FieldStatusCode, status}
	if status >= 500 {
		l.ErrorContext(r.Context(), msg, args...)
		return
	}
	l.WarnContext(r.Context(), msg, args...)
}

// failPage renders the error page for err.
func (s *Server) failPage(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	s.logFailure(r, msg, err, status)
	s.renderError(w, r, status, userMessage(err, status))
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logFailure(r, "Internal error", err, http.StatusInternalServerError)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusNotFound, "Page not found")
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	s.renderError(w, r, http.StatusTooManyRequests, "Too many attempts. Please wait a minute and try again.")
}

// writeJSON encodes v with the given status.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode JSON response", log.FieldError, err)
	}
}

func (s *Server) failJSON(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	s.logFailure(r, msg, err, status)
	s.writeJSON(w, r, status, map[string]string{"error": userMessage(err, status)})
}
