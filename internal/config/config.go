// Package config reads the authorizer settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvJWKSURI            = "JWKS_URI"
	EnvIssuerURL          = "OIDC_ISSUER_URL"
	EnvMinRefreshRate     = "MIN_REFRESH_RATE"
	EnvPrincipalIDClaims  = "PRINCIPAL_ID_CLAIMS"
	EnvDefaultPrincipalID = "DEFAULT_PRINCIPAL_ID"
	EnvAcceptedIssuers    = "ACCEPTED_ISSUERS"
	EnvAcceptedAudiences  = "ACCEPTED_AUDIENCES"
	EnvAcceptedAlgorithms = "ACCEPTED_ALGORITHMS"
	EnvTokenValidationCEL = "TOKEN_VALIDATION_CEL"
	EnvAllowedClockSkew   = "ALLOWED_CLOCK_SKEW"
	EnvJWKSFetchTimeout   = "JWKS_FETCH_TIMEOUT"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvZipkinEndpoint     = "ZIPKIN_ENDPOINT"
)

// Defaults.
const (
	DefaultMinRefreshRate    = 900 * time.Second
	DefaultPrincipalIDClaims = "preferred_username, sub"
	DefaultPrincipalID       = "unknown"
	DefaultAllowedClockSkew  = 60 * time.Second
	DefaultJWKSFetchTimeout  = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "json"
)

// Config holds every setting of the authorizer.
type Config struct {
	JWKSURI            *url.URL
	IssuerURL          *url.URL
	MinRefreshRate     time.Duration
	PrincipalIDClaims  []string
	// DefaultPrincipalID is never empty: a set but empty DEFAULT_PRINCIPAL_ID
	// falls back to "unknown", since API Gateway rejects an empty principalId.
	DefaultPrincipalID string
	AcceptedIssuers    []string
	AcceptedAudiences  []string
	AcceptedAlgorithms []string
	TokenValidationCEL string
	AllowedClockSkew   time.Duration
	JWKSFetchTimeout   time.Duration
	LogLevel           string
	LogFormat          string
	ZipkinEndpoint     string
}

// LookupFunc returns the value of a variable and whether it is set, like
// os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load builds a Config from lookup. Either JWKS_URI or OIDC_ISSUER_URL must
// be set; when both are, JWKS_URI wins and no discovery happens.
func Load(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	var err error

	if cfg.JWKSURI, err = optionalURL(lookup, EnvJWKSURI); err != nil {
		return nil, err
	}
	if cfg.IssuerURL, err = optionalURL(lookup, EnvIssuerURL); err != nil {
		return nil, err
	}
	if cfg.JWKSURI == nil && cfg.IssuerURL == nil {
		return nil, fmt.Errorf("%s is required (or set %s to discover it)", EnvJWKSURI, EnvIssuerURL)
	}

	if cfg.MinRefreshRate, err = seconds(lookup, EnvMinRefreshRate, DefaultMinRefreshRate); err != nil {
		return nil, err
	}
	if cfg.AllowedClockSkew, err = seconds(lookup, EnvAllowedClockSkew, DefaultAllowedClockSkew); err != nil {
		return nil, err
	}
	if cfg.JWKSFetchTimeout, err = seconds(lookup, EnvJWKSFetchTimeout, DefaultJWKSFetchTimeout); err != nil {
		return nil, err
	}
	if cfg.JWKSFetchTimeout == 0 {
		return nil, fmt.Errorf("%s must be positive", EnvJWKSFetchTimeout)
	}

	cfg.PrincipalIDClaims = SplitList(valueOr(lookup, EnvPrincipalIDClaims, DefaultPrincipalIDClaims))
	cfg.DefaultPrincipalID = valueOr(lookup, EnvDefaultPrincipalID, DefaultPrincipalID)
	if cfg.DefaultPrincipalID == "" {
		cfg.DefaultPrincipalID = DefaultPrincipalID
	}
	cfg.AcceptedIssuers = SplitList(valueOr(lookup, EnvAcceptedIssuers, ""))
	cfg.AcceptedAudiences = SplitList(valueOr(lookup, EnvAcceptedAudiences, ""))
	cfg.AcceptedAlgorithms = SplitList(valueOr(lookup, EnvAcceptedAlgorithms, ""))
	cfg.TokenValidationCEL = valueOr(lookup, EnvTokenValidationCEL, "")

	cfg.LogLevel = strings.ToLower(valueOr(lookup, EnvLogLevel, DefaultLogLevel))
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("%s must be one of debug, info, warn, error, got %q", EnvLogLevel, cfg.LogLevel)
	}

	cfg.LogFormat = strings.ToLower(valueOr(lookup, EnvLogFormat, DefaultLogFormat))
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("%s must be json or text, got %q", EnvLogFormat, cfg.LogFormat)
	}

	cfg.ZipkinEndpoint = valueOr(lookup, EnvZipkinEndpoint, "")

	return cfg, nil
}

// SplitList splits a comma separated value, trimming spaces and dropping
// empty elements. It never returns nil.
func SplitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// EnvLookup returns a LookupFunc reading the process environment first and
// then the dotenv file at path. Values in the file never override the
// environment. An empty path reads only the environment.
func EnvLookup(path string) (LookupFunc, error) {
	if path == "" {
		return os.LookupEnv, nil
	}

	file, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("could not read env file %s: %w", path, err)
	}

	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}, nil
}

func valueOr(lookup LookupFunc, key, fallback string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return fallback
}

func optionalURL(lookup LookupFunc, key string) (*url.URL, error) {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid %s: scheme must be http or https, got %q", key, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid %s: missing host", key)
	}
	return u, nil
}

var errNegative = errors.New("must not be negative")

func seconds(lookup LookupFunc, key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := lookup(key)
	if !ok {
		return fallback, nil
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: expected a whole number of seconds", key, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, errNegative)
	}
	if n > int64(1<<62)/int64(time.Second) {
		return 0, fmt.Errorf("invalid %s %q: value too large", key, raw)
	}
	return time.Duration(n) * time.Second, nil
}
