// Package web holds the JSON response envelope used by every handler.
package web

import (
	"encoding/json"
	"net/http"

	"notus/pkg/apperr"
	"notus/pkg/logger"
)

// Success writes {"success":true} with an optional data payload.
func Success(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]any{"success": true}
	if data != nil {
		body["data"] = data
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Fail translates a service error into a status code and a generic
// {"success":false,"error":...} body.
func Fail(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.HTTPStatus(err))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   apperr.Message(err),
	})
}
