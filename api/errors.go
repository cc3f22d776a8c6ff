package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dstern/flapgate/admit"
	"github.com/dstern/flapgate/token"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, token.ErrMissing),
		errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrForged):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, admit.ErrInvalidInput),
		errors.Is(err, admit.ErrImpossibleScore),
		errors.Is(err, admit.ErrMissingLog),
		errors.Is(err, admit.ErrInsufficientInputs),
		errors.Is(err, admit.ErrPhysicsViolation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
