package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/coinledger/internal/adapter/command"
	"github.com/iho/coinledger/internal/adapter/http/dto"
	"github.com/iho/coinledger/internal/domain"
)

// RetryAfterSeconds is advertised to clients on 503 Busy responses.
const RetryAfterSeconds = "1"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status its kind maps to.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if errors.Is(err, domain.ErrKindBusy) {
		w.Header().Set("Retry-After", RetryAfterSeconds)
	}
	writeError(w, status, message, err.Error())
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, command.ErrNotPrivileged):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrKindNotRegistered), errors.Is(err, domain.ErrKindItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrKindAlreadyRegistered), errors.Is(err, domain.ErrKindAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrKindInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrKindInsufficientFunds):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrKindBusy), errors.Is(err, domain.ErrKindStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
