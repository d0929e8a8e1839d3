// Package respond writes JSON bodies and the error envelope shared by the
// API handlers.
package respond

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"financial_dashboard/pkg/logging"
	"financial_dashboard/pkg/models"
)

// JSON writes v with the given status. A value that cannot be encoded is
// answered with a 500 error envelope instead.
func JSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	body, err := Marshal(v)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to encode response", zap.Int("status", status), zap.Error(err))
		status = http.StatusInternalServerError
		body, _ = Marshal(models.ErrorResponse{Error: "failed to encode response"})
	}
	Raw(w, r, status, body)
}

// Raw writes an already encoded JSON body.
func Raw(w http.ResponseWriter, r *http.Request, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.FromContext(r.Context()).Debug("failed to write response", zap.Error(err))
	}
}

// Marshal encodes v the way JSON writes it, newline terminated.
func Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Error writes {"error": message}. 5xx answers are logged at error level.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	log := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("sending JSON error to client", zap.String("message", message), zap.Int("status", status))
	} else {
		log.Debug("sending JSON error to client", zap.String("message", message), zap.Int("status", status))
	}
	JSON(w, r, status, models.ErrorResponse{Error: message})
}

// Decode reads a JSON body of at most limit bytes into v.
func Decode(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v)
}
