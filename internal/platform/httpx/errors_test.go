package httpx

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamweelsys/fawtara/internal/shared"
)

func TestRespondErrorStoreOutage(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("billing: list grouped orders: dial tcp: %w", shared.ErrStoreUnavailable)
	RespondError(rec, err)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
	// Driver detail stays out of the response body.
	require.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestRespondErrorConflictRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("stale version: %w", shared.ErrConflict))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRespondErrorNotFoundIsTerminal(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("grouped order x: %w", shared.ErrNotFound))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Header().Get("Retry-After"))
}
