package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/gatehouse/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, err *apierr.Error) {
	writeJSON(w, err.Status, err)
}

// writeValidationError reports malformed input with field-level
// messages.
func writeValidationError(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "Validation failed",
		"errors":  fields,
	})
}
