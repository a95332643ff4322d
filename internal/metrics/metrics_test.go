package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reposync/pkg/syncer"
)

func TestRecorder_ObserveResult(t *testing.T) {
	r := NewRecorder()

	r.ObserveResult(syncer.Result{Direction: syncer.DirectionUpload, Status: syncer.StatusSuccess, Bytes: 10})
	r.ObserveResult(syncer.Result{Direction: syncer.DirectionUpload, Status: syncer.StatusSuccess, Bytes: 5})
	r.ObserveResult(syncer.Result{Direction: syncer.DirectionUpload, Status: syncer.StatusSkipped})
	r.ObserveResult(syncer.Result{Direction: syncer.DirectionDownload, Status: syncer.StatusFailed, Bytes: 99})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.filesTotal.WithLabelValues("upload", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesTotal.WithLabelValues("upload", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.filesTotal.WithLabelValues("download", "failed")))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.bytesTotal.WithLabelValues("upload")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.bytesTotal.WithLabelValues("download")))
}

func TestOutcome(t *testing.T) {
	failed := syncer.Result{Status: syncer.StatusFailed}
	ok := syncer.Result{Status: syncer.StatusSuccess}

	tests := []struct {
		name     string
		report   *syncer.Report
		expected string
	}{
		{name: "clean", report: &syncer.Report{Results: []syncer.Result{ok}}, expected: "ok"},
		{name: "nothing to do", report: &syncer.Report{Notice: "No sync paths configured"}, expected: "ok"},
		{name: "file failed", report: &syncer.Report{Results: []syncer.Result{ok, failed}}, expected: "failed"},
		{name: "aborted", report: &syncer.Report{Results: []syncer.Result{failed}, Aborted: true}, expected: "aborted"},
		{name: "configuration", report: &syncer.Report{Err: syncer.ErrConfiguration}, expected: "config_error"},
		{name: "cancelled mid pass", report: &syncer.Report{Results: []syncer.Result{ok}, Aborted: true, Err: errors.New("canceled")}, expected: "aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Outcome(tt.report))
		})
	}
}

func TestRecorder_ObservePass(t *testing.T) {
	r := NewRecorder()
	started := time.Unix(1700000000, 0)

	r.ObservePass(&syncer.Report{Direction: syncer.DirectionDownload, Started: started, Duration: 2 * time.Second})
	r.ObservePass(&syncer.Report{Direction: syncer.DirectionDownload, Err: syncer.ErrConfiguration})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.passesTotal.WithLabelValues("download", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.passesTotal.WithLabelValues("download", "config_error")))
	assert.Equal(t, float64(1700000002), testutil.ToFloat64(r.lastSuccess.WithLabelValues("download")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveResult(syncer.Result{Direction: syncer.DirectionUpload, Status: syncer.StatusSuccess, Bytes: 3})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `reposync_files_total{direction="upload",status="success"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
