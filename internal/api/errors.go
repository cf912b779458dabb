package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/xrpl-farmer-api/internal/errors"
	"github.com/xrpl-farmer-api/internal/logging"
)

// respondError sends the plain-text message of a categorized error.
// Causes never reach the client; unexpected errors are logged here.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	catErr := apperrors.Categorize(err)

	if catErr.Code == apperrors.CodeInternalError {
		logging.FromContext(r.Context()).WithError(catErr.Cause).WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("Request failed")
	}

	respondText(w, catErr.StatusCode, catErr.Message)
}

// respondText sends a plain-text response.
func respondText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(message))
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
