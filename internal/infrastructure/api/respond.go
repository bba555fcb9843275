package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bali7319/marketplace-core/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type failureResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is a 500 with the message passed through; callers log
// before reaching here when more context helps.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrCapabilityNotSupported):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSyncInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrGuardrail):
		status = http.StatusRequestEntityTooLarge
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
		writeJSON(w, status, failureResponse{Ok: false, Error: err.Error()})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
