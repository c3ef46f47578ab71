package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/flippy/internal/logging"
	"github.com/dmitrijs2005/flippy/internal/validation"
	"github.com/goccy/go-json"
)

// maxBodyBytes caps request bodies; generate-cards carries whole documents.
const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// respondJSON writes v with the given status.
func respondJSON(ctx context.Context, log logging.Logger, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error(ctx, "marshal response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Debug(ctx, "write response", "error", err)
	}
}

// respondError writes {"error": msg}.
func respondError(ctx context.Context, log logging.Logger, w http.ResponseWriter, status int, msg string) {
	respondJSON(ctx, log, w, status, errorResponse{Error: msg})
}

// decodeJSON reads a single JSON object from r into dst and validates it.
// Malformed or oversized bodies are reported as errBadBody, failed
// validation as *validation.Error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	if dec.More() {
		return errBadBody
	}

	return validation.Struct(dst)
}

// bodyErrorMessage turns a decodeJSON failure into a client message.
func bodyErrorMessage(err error) string {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "Invalid request body"
}
