package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/eyecare-bfa-go/internal/domain"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeJSON encodes data before any header is sent, so a value that cannot
// be encoded yields a 500 rather than a truncated success.
func writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		body = []byte(`{"error":"internal server error"}`)
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// decodeJSON reads a JSON body of at most maxBodyBytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 500 {
			limit = l
		}
	}
	return limit
}

// statusForError maps domain errors to an HTTP status and the message shown
// to the client, logging at a level matching the status.
func statusForError(err error, logger *zap.Logger) (int, string) {
	var notFound *domain.ErrNotFound
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var external *domain.ErrExternalService

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		return http.StatusConflict, conflict.Error()
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		return http.StatusUnauthorized, unauthorized.Error()
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		return http.StatusForbidden, forbidden.Error()
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		return http.StatusServiceUnavailable, "record store temporarily unavailable"
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		return http.StatusGatewayTimeout, timeout.Error()
	case errors.As(err, &external):
		logger.Error("record store error", zap.Error(err))
		return http.StatusBadGateway, "record store error"
	default:
		logger.Error("unhandled error", zap.Error(err))
		return http.StatusInternalServerError, "internal server error"
	}
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status, msg := statusForError(err, logger)
	writeError(w, status, msg)
}

// writeSaved answers a save endpoint with the {success, data} envelope.
func writeSaved[T any](w http.ResponseWriter, status int, data *T) {
	writeJSON(w, status, domain.SaveResult[T]{Success: true, Data: data})
}

// handleSaveError answers a failed save with {success: false, message}.
func handleSaveError[T any](w http.ResponseWriter, err error, logger *zap.Logger) {
	status, msg := statusForError(err, logger)
	writeJSON(w, status, domain.SaveResult[T]{Success: false, Message: msg})
}
