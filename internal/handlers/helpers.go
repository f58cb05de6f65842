package handlers

import (
	"encoding/json"
	"net/http"

	"waconsole/internal/domain"
)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError converts a domain error into the matching HTTP status
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), map[string]any{
		"error": err.Error(),
	})
}

// statusForError maps the error taxonomy onto HTTP status codes
func statusForError(err error) int {
	switch err.(type) {
	case *domain.ValidationError:
		return http.StatusBadRequest
	case *domain.BusinessError:
		return http.StatusConflict
	case *domain.NotFoundError:
		return http.StatusNotFound
	case *domain.NetworkError, *domain.BackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
