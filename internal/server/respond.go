package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"signals-ledger-go/internal/store"

	"go.uber.org/zap"
)

const idempotencyHeader = "Idempotency-Key"

type errorResponse struct {
	Error string          `json:"error"`
	Kind  store.ErrorKind `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP status codes. Internal errors
// are not echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	kind := store.KindOf(err)
	status := statusFor(kind, err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed", zap.Error(err))
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: message, Kind: kind})
}

func statusFor(kind store.ErrorKind, err error) int {
	switch kind {
	case store.KindValidation:
		return http.StatusBadRequest
	case store.KindInsufficientBalance:
		return http.StatusPaymentRequired
	case store.KindNotFound:
		return http.StatusNotFound
	case store.KindInvalidState:
		return http.StatusConflict
	case store.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, store.ErrConcurrentModification) || errors.Is(err, store.ErrDuplicateTransaction) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return store.NewValidationError("body", "invalid JSON body: %v", err)
	}
	return nil
}
