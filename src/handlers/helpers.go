package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Tombez/bank-transaction-vis-sub000/src/logger"
)

type jsonError struct {
	Error string `json:"error"`
}

func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message})
}

func sendJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L.Error("Failed to encode JSON response", "error", err)
	}
}

// unmarshalStrict rejects unknown fields so typos in settings payloads fail
// loudly instead of silently dropping a column mapping.
func unmarshalStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
