// Package httputil holds the JSON response envelope shared by every HTTP surface.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"yapisite/pkg/platform/sentinel"
)

// Error codes used in the JSON error envelope.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeUnavailable  = "service_unavailable"
	CodeInternal     = "internal_error"
)

// WriteJSON encodes v as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteJSONError writes a JSON error response with the given status code and error details.
// An empty description is omitted from the envelope.
func WriteJSONError(w http.ResponseWriter, status int, code, description string) {
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	WriteJSON(w, status, body)
}

// WriteError translates infrastructure sentinels into HTTP statuses.
// Internal and unavailable errors never expose their message to the caller.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, CodeNotFound, "resource not found")
	case errors.Is(err, sentinel.ErrUnauthorized), errors.Is(err, sentinel.ErrExpired):
		WriteJSONError(w, http.StatusUnauthorized, CodeUnauthorized, "")
	case errors.Is(err, sentinel.ErrUnavailable):
		WriteJSONError(w, http.StatusServiceUnavailable, CodeUnavailable, "")
	default:
		WriteJSONError(w, http.StatusInternalServerError, CodeInternal, "")
	}
}
