package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/auctionwatcher/internal/metrics"
	"sjsage522/auctionwatcher/internal/model"
	"sjsage522/auctionwatcher/internal/ratelimit"
	"sjsage522/auctionwatcher/services/scheduler"
)

type stubStore struct {
	pingErr  error
	sessions []model.ScrapeSession
	limit    int
}

var _ Store = (*stubStore)(nil)

func (s *stubStore) Ping(context.Context) error { return s.pingErr }

func (s *stubStore) RecentSessions(_ context.Context, limit int) ([]model.ScrapeSession, error) {
	s.limit = limit
	return s.sessions, nil
}

type stubLimiter struct{}

func (stubLimiter) Status() ratelimit.Status {
	return ratelimit.Status{RequestsInLastMinute: 3, RequestsRemaining: 12, CanProceed: true}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func newTestRouter(store *stubStore) http.Handler {
	sched := scheduler.New(time.Minute, nil)
	sched.Every("urgent-check", 30*time.Minute, func(context.Context) error { return nil })

	reg := prometheus.NewRegistry()
	metrics.NewCollector(reg).RecordRun("completed")

	return NewRouter(Deps{
		Store:     store,
		Scheduler: sched,
		Limiter:   stubLimiter{},
		Channels:  []string{"desktop", "console"},
		Gatherer:  reg,
	})
}

func TestHealthz(t *testing.T) {
	store := &stubStore{}
	h := newTestRouter(store)

	w := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	store.pingErr = errors.New("database is locked")
	w = get(t, h, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "database is locked")
}

func TestStatus(t *testing.T) {
	w := get(t, newTestRouter(&stubStore{}), "/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Scheduler.Running)
	assert.Equal(t, 1, resp.Scheduler.Jobs)
	assert.Equal(t, "urgent-check", resp.Scheduler.Tasks[0].Name)
	require.NotNil(t, resp.RateLimit)
	assert.Equal(t, 12, resp.RateLimit.RequestsRemaining)
	assert.Equal(t, []string{"desktop", "console"}, resp.Channels)
}

func TestSessions(t *testing.T) {
	store := &stubStore{sessions: []model.ScrapeSession{{ID: 7, Status: model.SessionCompleted, ItemsFound: 4}}}
	h := newTestRouter(store)

	w := get(t, h, "/api/sessions?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, store.limit)
	assert.Contains(t, w.Body.String(), `"session_id":7`)
	assert.Contains(t, w.Body.String(), `"status":"completed"`)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/sessions?limit=abc").Code)
}

func TestMetrics(t *testing.T) {
	w := get(t, newTestRouter(&stubStore{}), "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `auctionwatcher_scrape_runs_total{status="completed"} 1`)
}
