package keystore

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a KeyStore.
type Option func(*KeyStore) error

// WithJWKSURI sets the location of the JWKS document. Required.
func WithJWKSURI(jwksURI *url.URL) Option {
	return func(s *KeyStore) error {
		if jwksURI == nil {
			return errors.New("JWKS URI cannot be nil")
		}
		if jwksURI.Scheme != "http" && jwksURI.Scheme != "https" {
			return fmt.Errorf("JWKS URI must use http or https, got %q", jwksURI.Scheme)
		}
		s.jwksURI = jwksURI
		return nil
	}
}

// WithHTTPClient sets the client used to download the JWKS document.
func WithHTTPClient(client *http.Client) Option {
	return func(s *KeyStore) error {
		if client == nil {
			return errors.New("HTTP client cannot be nil")
		}
		s.client = client
		return nil
	}
}

// WithMinRefreshInterval sets how long after a successful refresh a miss
// must wait before refreshing again. Zero refreshes on every miss.
func WithMinRefreshInterval(interval time.Duration) Option {
	return func(s *KeyStore) error {
		if interval < 0 {
			return errors.New("minimum refresh interval cannot be negative")
		}
		s.minRefreshInterval = interval
		return nil
	}
}

// WithUserAgent sets the User-Agent sent to the provider.
func WithUserAgent(userAgent string) Option {
	return func(s *KeyStore) error {
		if userAgent == "" {
			return errors.New("user agent cannot be empty")
		}
		s.userAgent = userAgent
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) Option {
	return func(s *KeyStore) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(s *KeyStore) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		s.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer used for refresh spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *KeyStore) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		s.tracer = tracer
		return nil
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) Option {
	return func(s *KeyStore) error {
		if clock == nil {
			return errors.New("clock cannot be nil")
		}
		s.clock = clock
		return nil
	}
}
