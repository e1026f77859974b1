package keystore

import "time"

// Logger is the structured logger used by the store. Arguments are
// alternating keys and values.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Metrics receives refresh counters and the current key count.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Metric names.
const (
	MetricRefreshes       = "oidc_authorizer_jwks_refresh_total"
	MetricRefreshDuration = "oidc_authorizer_jwks_refresh_duration_seconds"
	MetricKeys            = "oidc_authorizer_jwks_keys"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

type nopMetrics struct{}

func (nopMetrics) IncCounter(string, map[string]string)                {}
func (nopMetrics) ObserveHistogram(string, float64, map[string]string) {}
func (nopMetrics) SetGauge(string, float64, map[string]string)         {}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
