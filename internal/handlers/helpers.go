// Package handlers implements the caller-facing JSON API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kazuke353/magnus/internal/portfolio"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method || (method == http.MethodGet && r.Method == http.MethodHead) {
		return true
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	return false
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WritePipelineError maps the portfolio error taxonomy onto HTTP responses.
// Upstream and cache failures all surface as a generic "temporarily
// unavailable" so callers never see backend detail; anything else is a 500.
func WritePipelineError(w http.ResponseWriter, err error) error {
	var upstreamErr *portfolio.UpstreamError
	var formatErr *portfolio.UpstreamFormatError
	var readErr *portfolio.CacheReadError
	var writeErr *portfolio.CacheWriteError

	switch {
	case errors.As(err, &upstreamErr),
		errors.As(err, &formatErr),
		errors.As(err, &readErr),
		errors.As(err, &writeErr):
		return WriteError(w, http.StatusServiceUnavailable, "portfolio data temporarily unavailable")
	default:
		return WriteError(w, http.StatusInternalServerError, "internal server error")
	}
}
