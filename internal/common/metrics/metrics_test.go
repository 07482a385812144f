// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// ==========================
// Job Lifecycle Metric Tests
// ==========================

func TestWorkerJobsActiveBracketsWork(t *testing.T) {
	gauge := WorkerJobsActive.WithLabelValues("screening.test-active")

	gauge.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(gauge))

	gauge.Dec()
	assert.Equal(t, 0.0, testutil.ToFloat64(gauge))
}

func TestWorkerJobDurationRecordsObservations(t *testing.T) {
	before := testutil.CollectAndCount(WorkerJobDuration)

	WorkerJobDuration.WithLabelValues("screening.test-duration").Observe(0.25)

	assert.Equal(t, before+1, testutil.CollectAndCount(WorkerJobDuration))
}

func TestWorkerJobCounters(t *testing.T) {
	completed := WorkerJobsCompleted.WithLabelValues("screening.test-counter")
	completed.Inc()
	completed.Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(completed))

	failed := WorkerJobsFailed.WithLabelValues("screening.test-counter", "INPUT_VALIDATION_FAILED")
	failed.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(failed))
}
