package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/astrodesk/consult-platform/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// insufficientCreditsResponse is the 402 payload shape.
type insufficientCreditsResponse struct {
	Error    string `json:"error"`
	Balance  int64  `json:"balance"`
	Required int64  `json:"required"`
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var insufficient *model.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusPaymentRequired, insufficientCreditsResponse{
			Error:    "insufficient credits",
			Balance:  insufficient.Balance,
			Required: insufficient.Required,
		})
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
