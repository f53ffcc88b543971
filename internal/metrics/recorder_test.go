package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-tracker/internal/status"
)

func TestRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewRecorder(reg)

	r.SetStatusCounts(map[status.Status]int{status.OK: 3, status.DueSoon: 1, status.Overdue: 2}, time.Unix(1700000000, 0))
	r.IncReminder(status.Overdue)
	r.IncReminder(status.Overdue)
	r.IncPushResult("sent")
	r.ObserveHTTP("GET", "/api/machines", 200, 5*time.Millisecond)
	r.ObserveHTTP("GET", "", 404, time.Millisecond)

	assert.Equal(t, 3.0, testutil.ToFloat64(r.machines.WithLabelValues("OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.machines.WithLabelValues("Overdue")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.reminders.WithLabelValues("Overdue")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pushResults.WithLabelValues("sent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastScanSeconds))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(nil)
	r.SetStatusCounts(map[status.Status]int{status.DueSoon: 4}, time.Now())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `maintenance_machines{status="Due Soon"} 4`)
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.SetStatusCounts(map[status.Status]int{status.OK: 1}, time.Now())
		r.IncReminder(status.OK)
		r.IncPushResult("failed")
		r.ObserveHTTP("GET", "/", 200, time.Second)
		assert.Nil(t, r.Registry())
		assert.NotNil(t, r.Handler())
	})
}
