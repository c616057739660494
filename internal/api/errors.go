package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/validation"
)

// ErrorResponse represents a JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSONError writes a JSON error response
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}

// decode reads a JSON body into v and validates it. It answers 400 itself
// and returns false when the body is unusable.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := validation.Struct(v); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			JSONError(w, verr.Error(), http.StatusBadRequest)
			return false
		}
		JSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// internalError logs err and answers 500 without leaking it.
func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	logging.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	JSONError(w, "Internal server error", http.StatusInternalServerError)
}
