package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stanondieki/Infera-AI-sub003/internal/metrics"
	"github.com/stanondieki/Infera-AI-sub003/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	counts map[task.Status]int64
	calls  int
}

func (f *fakeCounter) CountByStatus(ctx context.Context) (map[task.Status]int64, error) {
	f.calls++
	return f.counts, nil
}

func scrape(t *testing.T) string {
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

// TestRecorders 测试业务指标输出
func TestRecorders(t *testing.T) {
	metrics.RecordAPIRequest("GET", "/api/v1/tasks", 200, 0.01)
	metrics.RecordTaskCreated("DATA_ANNOTATION")
	metrics.RecordTransition("assign")
	metrics.RecordReview("approve", "APPROVED")
	metrics.RecordConflict()
	metrics.RecordEarnings(37.5, true)

	body := scrape(t)
	assert.Contains(t, body, `tasks_created_total{category="DATA_ANNOTATION"}`)
	assert.Contains(t, body, `task_transitions_total{event="assign"}`)
	assert.Contains(t, body, `reviews_total{action="approve",outcome="APPROVED"}`)
	assert.Contains(t, body, "task_concurrency_conflicts_total")
	assert.Contains(t, body, `task_earnings_total{payable="true"}`)
}

// TestCollector 测试定时采集
func TestCollector(t *testing.T) {
	counter := &fakeCounter{counts: map[task.Status]int64{task.StatusUnderReview: 3}}
	c := metrics.NewCollector(nil, counter, "@every 1h")
	require.NoError(t, c.Start())
	c.Stop()

	assert.Equal(t, 1, counter.calls)
	body := scrape(t)
	assert.Contains(t, body, `tasks_by_status{status="UNDER_REVIEW"} 3`)
	assert.True(t, strings.Contains(body, `tasks_by_status{status="APPROVED"} 0`))

	bad := metrics.NewCollector(nil, counter, "not a schedule")
	assert.Error(t, bad.Start())
}
