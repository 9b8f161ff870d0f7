package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obs.L(r.Context()).Warn("encode failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object. An empty body is accepted when
// allowEmpty is set.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return errors.New("invalid json body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// writeServiceError maps domain errors to HTTP statuses. Anything
// unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusUnprocessableEntity, map[string]any{
			"error":    "validation failed",
			"messages": verr.Messages,
		})
	case errors.Is(err, domain.ErrStopCapacity):
		writeError(w, r, http.StatusConflict, "a transport request can serve at most 10 stop points")
	case errors.Is(err, domain.ErrUnknownTransfer):
		writeError(w, r, http.StatusNotFound, "transfer not found for the selected pickup location")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, context.DeadlineExceeded):
		obs.L(r.Context()).Warn(op+" timed out", zap.Error(err))
		writeError(w, r, http.StatusGatewayTimeout, "backend timed out, please retry")
	default:
		obs.L(r.Context()).Error(op+" failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
