package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ExpenseCreated()
	m.ExpenseCreated()
	m.EventPublished(ResultOK)
	m.EventPublished(ResultSkipped)
	m.EventPublished(ResultSkipped)
	m.MirrorAppended(ResultError)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.expensesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues(ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues(ResultSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mirrorAppends.WithLabelValues(ResultError)))
}

func TestHandlerExposesRequestMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("POST", "/expenses", 200, 3*time.Millisecond)
	m.ObserveRequest("GET", "/expenses/summary", 422, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `ledger_http_requests_total{method="POST",route="/expenses",status="200"} 1`)
	assert.Contains(t, text, `ledger_http_requests_total{method="GET",route="/expenses/summary",status="422"} 1`)
	assert.Contains(t, text, `ledger_http_request_duration_seconds_count{method="POST",route="/expenses"} 1`)
}

func TestSeparateInstancesDoNotShareState(t *testing.T) {
	a, b := New(), New()
	a.ExpenseCreated()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.expensesCreated))
}
