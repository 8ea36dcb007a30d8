// Package api provides HTTP handlers for the Fluxo API.
package api

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ErrorWithDetails writes a JSON error response carrying a details field,
// the shape the chat UI expects for validation and configuration failures.
func ErrorWithDetails(w http.ResponseWriter, status int, message, details string) {
	JSON(w, status, map[string]string{"error": message, "details": details})
}
