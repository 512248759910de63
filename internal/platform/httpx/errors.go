package httpx

import (
	"errors"
	"net/http"

	"github.com/tamweelsys/fawtara/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807.
// Retryable failures carry a Retry-After hint; everything else is terminal
// for the request and must not be retried blindly.
func RespondError(w http.ResponseWriter, err error) {
	if shared.Retryable(err) {
		w.Header().Set("Retry-After", "1")
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInvalidAmount):
		Problem(w, http.StatusBadRequest, "Invalid Amount", err.Error())
	case errors.Is(err, shared.ErrAlreadySettled):
		Problem(w, http.StatusConflict, "Already Settled", err.Error())
	case errors.Is(err, shared.ErrInvariantViolation):
		Problem(w, http.StatusUnprocessableEntity, "Invariant Violation", err.Error())
	case errors.Is(err, shared.ErrConflict):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrStoreUnavailable):
		Problem(w, http.StatusServiceUnavailable, "Store Unavailable", "")
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
