package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

const (
	// DefaultMinRefreshInterval is the default minimum time between refreshes.
	DefaultMinRefreshInterval = 900 * time.Second

	// DefaultFetchTimeout bounds a single JWKS download.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultUserAgent is sent when no other User-Agent is configured.
	DefaultUserAgent = "oidc-authorizer"

	// maxResponseSize limits the JWKS document to 1 MiB.
	maxResponseSize = 1 << 20

	tracerName = "github.com/oidcauthorizer/oidc-authorizer/keystore"
)

// KeyStore resolves key ids to verification keys published at a JWKS URI.
// It is safe for concurrent use.
type KeyStore struct {
	jwksURI            *url.URL
	client             *http.Client
	minRefreshInterval time.Duration
	userAgent          string
	logger             Logger
	metrics            Metrics
	tracer             trace.Tracer
	clock              Clock

	mu          sync.RWMutex
	keys        keyMap
	lastRefresh time.Time
}

// New builds an empty KeyStore. WithJWKSURI is required.
func New(opts ...Option) (*KeyStore, error) {
	s := &KeyStore{
		client:             &http.Client{Timeout: DefaultFetchTimeout},
		minRefreshInterval: DefaultMinRefreshInterval,
		userAgent:          DefaultUserAgent,
		logger:             nopLogger{},
		metrics:            nopMetrics{},
		tracer:             otel.Tracer(tracerName),
		clock:              systemClock{},
		keys:               keyMap{},
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if s.jwksURI == nil {
		return nil, errors.New("JWKS URI is required (use WithJWKSURI)")
	}

	return s, nil
}

// JWKSURI returns the configured document location.
func (s *KeyStore) JWKSURI() string {
	return s.jwksURI.String()
}

// KeyIDs returns the ids currently held, sorted.
func (s *KeyStore) KeyIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys.ids()
}

// LastRefresh returns the time of the last successful refresh, or the zero
// time if none happened yet.
func (s *KeyStore) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

// Resolve returns the public key published under keyID. On a miss it
// refreshes once if the minimum refresh interval has passed since the last
// successful refresh, then looks again.
//
// Errors match ErrKeyNotFound or ErrFetchFailed.
func (s *KeyStore) Resolve(ctx context.Context, keyID string) (jwk.Key, error) {
	key, lastRefresh, ok := s.lookup(keyID)
	if ok {
		return key, nil
	}

	if !s.refreshDue(lastRefresh) {
		s.logger.Debug("Key not found and refresh not due", "kid", keyID, "last_refresh", lastRefresh)
		return nil, &KeyNotFoundError{KeyID: keyID}
	}

	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}

	if key, _, ok := s.lookup(keyID); ok {
		return key, nil
	}
	return nil, &KeyNotFoundError{KeyID: keyID, Refreshed: true}
}

func (s *KeyStore) lookup(keyID string) (jwk.Key, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.keys[keyID]
	return key, s.lastRefresh, ok
}

func (s *KeyStore) refreshDue(lastRefresh time.Time) bool {
	return !lastRefresh.Add(s.minRefreshInterval).After(s.clock.Now())
}

// Refresh downloads the JWKS document and replaces the held keys. The
// download is detached from ctx cancellation so an abandoned request still
// completes the refresh for everyone else. It is bounded by the HTTP client
// timeout.
func (s *KeyStore) Refresh(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "keystore.refresh",
		trace.WithAttributes(attribute.String("jwks.uri", s.jwksURI.String())),
	)
	defer span.End()

	start := s.clock.Now()
	entries, err := s.fetch(context.WithoutCancel(ctx))
	duration := s.clock.Now().Sub(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "JWKS refresh failed")
		s.metrics.IncCounter(MetricRefreshes, map[string]string{"result": "failure"})
		s.metrics.ObserveHistogram(MetricRefreshDuration, duration.Seconds(), map[string]string{"result": "failure"})
		s.logger.Error("JWKS refresh failed", "url", s.jwksURI.String(), "error", err)
		return &FetchError{URL: s.jwksURI.String(), Err: err}
	}

	keys := buildKeyMap(entries, s.logger)

	s.mu.Lock()
	s.keys = keys
	s.lastRefresh = s.clock.Now()
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("jwks.keys", len(keys)))
	s.metrics.IncCounter(MetricRefreshes, map[string]string{"result": "success"})
	s.metrics.ObserveHistogram(MetricRefreshDuration, duration.Seconds(), map[string]string{"result": "success"})
	s.metrics.SetGauge(MetricKeys, float64(len(keys)), map[string]string{})
	s.logger.Debug("JWKS refreshed", "url", s.jwksURI.String(), "keys", keys.ids(), "entries", len(entries), "duration", duration)

	return nil
}

func (s *KeyStore) fetch(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURI.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read JWKS: %w", err)
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("JWKS document exceeds %d bytes", maxResponseSize)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JWKS: %w", err)
	}
	if doc.Keys == nil {
		return nil, errors.New("failed to parse JWKS: missing keys member")
	}

	return *doc.Keys, nil
}
