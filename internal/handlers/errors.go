package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"piggybank/internal/logger"
	"piggybank/internal/service"
	"piggybank/internal/validation"
)

type errorResponse struct {
	Error   string                  `json:"error"`
	Details []validation.FieldError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, r *http.Request, status int, userMsg string, err error) {
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Int("status", status).Msg(userMsg)
	}
	writeJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps service errors to HTTP responses.
// Unknown errors are logged and reported as 500 with fallback.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ErrInvalidInput, Details: verrs})
		return
	}

	switch {
	case errors.Is(err, service.ErrKidNotFound):
		respondWithError(w, r, http.StatusNotFound, "Kid not found", nil)
	case errors.Is(err, service.ErrRewardNotFound):
		respondWithError(w, r, http.StatusNotFound, "Reward not found", nil)
	case errors.Is(err, service.ErrClaimNotFound):
		respondWithError(w, r, http.StatusNotFound, "Claim not found", nil)
	case errors.Is(err, service.ErrPINNotSet):
		respondWithError(w, r, http.StatusBadRequest, "PIN not set for this kid", nil)
	case errors.Is(err, service.ErrInvalidPIN):
		respondWithError(w, r, http.StatusUnauthorized, "Invalid PIN", nil)
	case errors.Is(err, service.ErrInsufficientBalance):
		respondWithError(w, r, http.StatusBadRequest, "Insufficient balance", nil)
	case errors.Is(err, service.ErrClaimResolved):
		respondWithError(w, r, http.StatusConflict, "Claim already resolved", nil)
	case errors.Is(err, service.ErrAIUnavailable):
		respondWithError(w, r, http.StatusServiceUnavailable, "AI assistant is not configured", nil)
	case errors.Is(err, service.ErrAvatarStorageDisabled):
		respondWithError(w, r, http.StatusServiceUnavailable, "Avatar storage is not configured", nil)
	default:
		respondWithError(w, r, http.StatusInternalServerError, fallback, err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondWithError(w, r, http.StatusBadRequest, ErrInvalidJSON, nil)
		return false
	}
	return true
}
