package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	p.ObserveEvaluation("value", "accumulate")
	p.ObserveEvaluation("value", "accumulate")
	p.ObserveEvaluation("gradient", "update")
	p.ObserveFailure("hessian")
	p.ObserveValue(1.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.evaluations.WithLabelValues("value", "accumulate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.evaluations.WithLabelValues("gradient", "update")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.failures.WithLabelValues("hessian")))
	assert.Equal(t, 1.5, testutil.ToFloat64(p.value))
	assert.Equal(t, 3, testutil.CollectAndCount(p.evaluations)+testutil.CollectAndCount(p.failures))
}

func TestPrometheusReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPrometheus(reg)
	require.NoError(t, err)
	b, err := NewPrometheus(reg)
	require.NoError(t, err)

	a.ObserveFailure("value")
	b.ObserveFailure("value")
	assert.Equal(t, 2.0, testutil.ToFloat64(a.failures.WithLabelValues("value")))
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	assert.NotPanics(t, func() {
		r.ObserveEvaluation("value", "calculate")
		r.ObserveFailure("value")
		r.ObserveValue(0)
	})
}
