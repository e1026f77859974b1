package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// DefaultAllowedClockSkew is the leeway applied to exp and nbf.
const DefaultAllowedClockSkew = 60 * time.Second

// TokenVerifier checks signatures and token lifetime.
type TokenVerifier struct {
	allowedClockSkew time.Duration
	requireExpiry    bool
	now              func() time.Time
}

// VerifierOption configures a TokenVerifier.
type VerifierOption func(*TokenVerifier) error

// WithAllowedClockSkew sets the leeway for exp and nbf.
func WithAllowedClockSkew(skew time.Duration) VerifierOption {
	return func(v *TokenVerifier) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.allowedClockSkew = skew
		return nil
	}
}

// WithRequiredExpiry controls whether a token without exp is rejected.
// It is on by default.
func WithRequiredExpiry(required bool) VerifierOption {
	return func(v *TokenVerifier) error {
		v.requireExpiry = required
		return nil
	}
}

// WithTimeFunc overrides the time source, mainly for tests.
func WithTimeFunc(now func() time.Time) VerifierOption {
	return func(v *TokenVerifier) error {
		if now == nil {
			return errors.New("time function cannot be nil")
		}
		v.now = now
		return nil
	}
}

// NewTokenVerifier returns a verifier with a 60 second leeway that requires exp.
func NewTokenVerifier(opts ...VerifierOption) (*TokenVerifier, error) {
	v := &TokenVerifier{
		allowedClockSkew: DefaultAllowedClockSkew,
		requireExpiry:    true,
		now:              time.Now,
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// AllowedClockSkew returns the configured leeway.
func (v *TokenVerifier) AllowedClockSkew() time.Duration {
	return v.allowedClockSkew
}

// Verify checks the signature of token with key using the algorithm named
// in header, then validates exp and nbf. It returns the decoded claims.
func (v *TokenVerifier) Verify(token string, header *Header, key jwk.Key) (map[string]any, error) {
	alg, ok := header.Algorithm.JWA()
	if !ok {
		return nil, &UnsupportedAlgorithmError{Algorithm: header.Algorithm, Accepted: SupportedAlgorithms()}
	}

	if keyAlg, ok := key.Algorithm(); ok && keyAlg.String() != string(header.Algorithm) {
		return nil, fmt.Errorf("%w: key declares %s, token uses %s", ErrKeyAlgorithmMismatch, keyAlg.String(), header.Algorithm)
	}

	payload, err := jws.Verify([]byte(token), jws.WithKey(alg, key))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	claims, err := decodeObject(payload)
	if err != nil {
		return nil, malformed("failed to parse claims: %v", err)
	}

	if err := v.validateLifetime(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

func (v *TokenVerifier) validateLifetime(claims map[string]any) error {
	now := v.now()

	exp, ok, err := numericDate(claims, "exp")
	if err != nil {
		return err
	}
	switch {
	case ok && now.After(exp.Add(v.allowedClockSkew)):
		return fmt.Errorf("%w: expired at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	case !ok && v.requireExpiry:
		return &ClaimError{Claim: "exp", Kind: ErrMissingClaim}
	}

	nbf, ok, err := numericDate(claims, "nbf")
	if err != nil {
		return err
	}
	if ok && now.Add(v.allowedClockSkew).Before(nbf) {
		return fmt.Errorf("%w: valid from %s", ErrTokenNotYetValid, nbf.UTC().Format(time.RFC3339))
	}

	return nil
}

// maxNumericDate is 9999-12-31T23:59:59Z. Larger values do not fit the
// conversion to time.Time.
const maxNumericDate = 253402300799

// numericDate reads an RFC 7519 NumericDate claim.
func numericDate(claims map[string]any, name string) (time.Time, bool, error) {
	raw, ok := claims[name]
	if !ok {
		return time.Time{}, false, nil
	}

	var seconds float64
	switch n := raw.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return time.Time{}, false, &ClaimError{Claim: name, Kind: ErrWrongClaimType, Value: raw}
		}
		seconds = f
	case float64:
		seconds = n
	default:
		return time.Time{}, false, &ClaimError{Claim: name, Kind: ErrWrongClaimType, Value: raw}
	}

	if math.IsNaN(seconds) || math.Abs(seconds) > maxNumericDate {
		return time.Time{}, false, &ClaimError{Claim: name, Kind: ErrWrongClaimType, Value: raw}
	}

	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)), true, nil
}
