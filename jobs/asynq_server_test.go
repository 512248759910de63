package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	calls int
	fail  bool
}

func (f *fakeEnqueuer) EnqueueFinanceWarmup(ctx context.Context) (*asynq.TaskInfo, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("queue unreachable")
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer WarmupEnqueuer) http.Handler {
	h := NewHandler(nil, enqueuer, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestEnqueueWarmupAccepted(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	router := newJobsRouter(enqueuer)

	req := httptest.NewRequest(http.MethodPost, "/jobs/finance-warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "task-1")
	require.Equal(t, 1, enqueuer.calls)
}

func TestEnqueueWarmupQueueDown(t *testing.T) {
	router := newJobsRouter(&fakeEnqueuer{fail: true})

	req := httptest.NewRequest(http.MethodPost, "/jobs/finance-warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEnqueueWarmupNotConfigured(t *testing.T) {
	router := newJobsRouter(nil)

	req := httptest.NewRequest(http.MethodPost, "/jobs/finance-warmup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
