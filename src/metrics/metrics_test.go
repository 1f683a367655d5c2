package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New("test", reg)
	require.NoError(t, err)

	m.Evaluation("Systemic Fail")
	m.Evaluation("Systemic Fail")
	m.Query("canned", nil)
	m.Query("anthropic", errors.New("x"))
	m.CacheLookup(true)
	m.UpstreamAttempt(1, 503, nil)
	m.UpstreamAttempt(2, 0, errors.New("dial"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("Systemic Fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("anthropic", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamAttempts.WithLabelValues("5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamAttempts.WithLabelValues("error")))
}

func TestReRegisterReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := New("dup", reg)
	require.NoError(t, err)
	b, err := New("dup", reg)
	require.NoError(t, err)

	a.Evaluation("Failing")
	assert.Equal(t, 1.0, testutil.ToFloat64(b.evaluations.WithLabelValues("Failing")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Evaluation("x")
	m.Query("x", nil)
	m.CacheLookup(false)
	m.UpstreamAttempt(1, 200, nil)
}
