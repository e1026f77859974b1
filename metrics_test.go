package authorizer

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	var metrics Metrics = NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"decision": "deny", "stage": "checking_issuer"}
		metrics.IncCounter(MetricDecisions, tags)
		metrics.IncCounter(MetricDecisions, tags)

		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.counters[MetricDecisions].With(tags)))
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		metrics.ObserveHistogram(MetricDecisionDuration, 0.01, map[string]string{"decision": "allow"})
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.histograms[MetricDecisionDuration]))
	})

	t.Run("SetGauge", func(t *testing.T) {
		metrics.SetGauge("oidc_authorizer_jwks_keys", 3, map[string]string{})
		metrics.SetGauge("oidc_authorizer_jwks_keys", 4, map[string]string{})

		expected := `
# HELP oidc_authorizer_jwks_keys Number of verification keys currently held.
# TYPE oidc_authorizer_jwks_keys gauge
oidc_authorizer_jwks_keys 4
`
		require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "oidc_authorizer_jwks_keys"))
	})

	t.Run("It reuses collectors registered by another instance", func(t *testing.T) {
		other := NewPrometheusMetrics(registry)
		tags := map[string]string{"decision": "deny", "stage": "checking_issuer"}
		other.IncCounter(MetricDecisions, tags)

		assert.Equal(t, float64(3), testutil.ToFloat64(metrics.counters[MetricDecisions].With(tags)))
	})

	t.Run("It is safe for concurrent use", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				metrics.IncCounter("concurrent_total", map[string]string{"a": "b"})
			}()
		}
		wg.Wait()
		assert.Equal(t, float64(20), testutil.ToFloat64(metrics.counters["concurrent_total"].With(map[string]string{"a": "b"})))
	})
}
