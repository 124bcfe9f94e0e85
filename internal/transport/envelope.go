package transport

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Envelope is the body of every API answer.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: message})
}

// decodeObject reads a JSON object body.
func decodeObject(body io.Reader) (map[string]any, error) {
	var obj map[string]any
	if err := json.NewDecoder(body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return obj, nil
}

func writeJSON(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
