package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqsbackoff/internal/backoff"
	"sqsbackoff/internal/config"
	"sqsbackoff/internal/ledger"
	"sqsbackoff/internal/logger"
	apperrors "sqsbackoff/pkg/errors"
	"sqsbackoff/pkg/health"
)

type stubLedger struct {
	entries map[string]ledger.Entry
	err     error
}

func (s *stubLedger) Save(ctx context.Context, entry ledger.Entry) error {
	return nil
}

func (s *stubLedger) Get(ctx context.Context, id string) (ledger.Entry, error) {
	if s.err != nil {
		return ledger.Entry{}, s.err
	}
	e, ok := s.entries[id]
	if !ok {
		return ledger.Entry{}, apperrors.ErrNotFound
	}
	return e, nil
}

type stubChecker struct {
	err error
}

func (s stubChecker) Name() string                    { return "sqs" }
func (s stubChecker) Check(ctx context.Context) error { return s.err }

func newTestRouter(repo ledger.Repository, checkErr error) http.Handler {
	schedule := backoff.MustSchedule([]int{600, 900, 1200}, 4, 0)
	checks := health.NewCheckerRegistry()
	checks.Register(stubChecker{err: checkErr})

	h := NewHandler(schedule, repo, logger.NopLogger())
	return NewRouter(&config.Config{}, logger.NopLogger(), h, checks, "test")
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetSchedule(t *testing.T) {
	w := get(t, newTestRouter(nil, nil), "/api/v1/schedule")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ScheduleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []int{600, 900, 1200}, resp.Delays)
	assert.Equal(t, 4, resp.MaxAttempts)
	assert.Equal(t, 43200, resp.MaxAllowedDelay)
	require.Len(t, resp.Decisions, 5)
	assert.False(t, resp.Decisions[4].ShouldRetry)
}

func TestGetDecision(t *testing.T) {
	tests := []struct {
		count       string
		wantCount   int
		wantRetry   bool
		wantDelay   int
		wantAttempt int
	}{
		{count: "1", wantCount: 1, wantRetry: true, wantDelay: 600, wantAttempt: 0},
		{count: "4", wantCount: 4, wantRetry: true, wantDelay: 1200, wantAttempt: 3},
		{count: "5", wantCount: 5, wantRetry: false, wantDelay: 0, wantAttempt: 4},
		{count: "garbage", wantCount: 1, wantRetry: true, wantDelay: 600, wantAttempt: 0},
	}

	router := newTestRouter(nil, nil)
	for _, tt := range tests {
		t.Run(tt.count, func(t *testing.T) {
			w := get(t, router, "/api/v1/schedule/decisions/"+tt.count)
			require.Equal(t, http.StatusOK, w.Code)

			var resp DecisionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCount, resp.DeliveryCount)
			assert.Equal(t, tt.wantRetry, resp.ShouldRetry)
			assert.Equal(t, tt.wantDelay, resp.DelaySeconds)
			assert.Equal(t, tt.wantAttempt, resp.AttemptIndex)
		})
	}
}

func TestGetOutcome(t *testing.T) {
	repo := &stubLedger{entries: map[string]ledger.Entry{
		"m1": {MessageID: "m1", Outcome: "recoverable", DelaySeconds: 900},
	}}

	tests := []struct {
		name       string
		repo       ledger.Repository
		path       string
		wantStatus int
		wantCode   string
	}{
		{name: "found", repo: repo, path: "/api/v1/outcomes/m1", wantStatus: http.StatusOK},
		{name: "unknown", repo: repo, path: "/api/v1/outcomes/m2", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "ledger disabled", repo: nil, path: "/api/v1/outcomes/m1", wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{
			name:       "store unavailable",
			repo:       &stubLedger{err: apperrors.ErrServiceUnavailable.WithCause(errors.New("breaker open"))},
			path:       "/api/v1/outcomes/m1",
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "SERVICE_UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, newTestRouter(tt.repo, nil), tt.path)
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantCode == "" {
				var entry ledger.Entry
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entry))
				assert.Equal(t, "m1", entry.MessageID)
				assert.Equal(t, 900, entry.DelaySeconds)
				return
			}

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.ErrorCode)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	w := get(t, newTestRouter(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, newTestRouter(nil, errors.New("queue missing")), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = get(t, newTestRouter(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
}
