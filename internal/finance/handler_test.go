package finance

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memoryReadRepo) http.Handler {
	t.Helper()
	svc := newCachedService(t, repo)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, 7)
	r := chi.NewRouter()
	r.Route("/finance", h.MountRoutes)
	return r
}

func TestDailyDefaultsToServiceClock(t *testing.T) {
	router := newTestRouter(t, &memoryReadRepo{src: fixtureSources()})

	req := httptest.NewRequest(http.MethodGet, "/finance/daily", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report WindowReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	// The service clock is pinned to 2026-03-03; an ambient clock would
	// report today instead.
	require.True(t, report.Start.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)))
	require.Len(t, report.PerDay, 1)
	require.Equal(t, "2026-03-03", report.PerDay[0].Day)
}

func TestDailyExplicitDayParameter(t *testing.T) {
	router := newTestRouter(t, &memoryReadRepo{src: fixtureSources()})

	req := httptest.NewRequest(http.MethodGet, "/finance/daily?day=2026-03-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var report WindowReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Equal(t, 200.0, report.Revenue)
}

func TestWindowRejectsBadBounds(t *testing.T) {
	router := newTestRouter(t, &memoryReadRepo{src: fixtureSources()})

	req := httptest.NewRequest(http.MethodGet, "/finance/window?start=2026-03-03&end=2026-03-01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
