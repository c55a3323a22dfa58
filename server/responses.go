package server

import (
	"encoding/json"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// The unauthorized body is identical for a missing cookie, an unknown
// session and an unconfirmed one. API callers cannot distinguish which
// of the three they hit.
func writeUnauthorized(w http.ResponseWriter) {
	writeJSONError(w, "Unauthorized", "No session token", http.StatusUnauthorized)
}

func writeStorageError(w http.ResponseWriter) {
	writeJSONError(w, "Internal Server Error", "Storage error", http.StatusInternalServerError)
}

func writeJSONError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
