package server

import (
	"encoding/json"
	"errors"
	"net/http"
)

// StatusError is a handler error with the status and message sent to the client.
// Err is logged but never written to the response.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

func badRequest(msg string, err error) error {
	return &StatusError{Code: http.StatusBadRequest, Message: msg, Err: err}
}

func notFound(msg string, err error) error {
	return &StatusError{Code: http.StatusNotFound, Message: msg, Err: err}
}

func internalError(msg string, err error) error {
	return &StatusError{Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// handlerFunc is an http.HandlerFunc that can fail.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// statusOf maps err to a status code and a client-safe message.
func statusOf(err error) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, se.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// api adapts h to write failures as {"error": message} JSON bodies.
func (s *Server) api(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		code, msg := statusOf(err)
		s.logError(r, code, err)
		writeJSON(w, code, map[string]string{"error": msg})
	})
}

// page adapts h to render failures with the error page template.
func (s *Server) page(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		code, msg := statusOf(err)
		s.logError(r, code, err)
		s.render(w, r, code, "error.html", errorPage{Status: code, Message: msg})
	})
}

func (s *Server) logError(r *http.Request, code int, err error) {
	entry := s.logger(r).WithError(err).WithField("status", code)
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
		return
	}
	entry.Warn("request rejected")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
