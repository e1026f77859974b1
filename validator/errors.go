package validator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedAlgorithm is returned when a token or a configuration
	// names an algorithm outside the accepted set.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidAlgorithmName is returned when a configured algorithm name
	// is not a known JWS algorithm.
	ErrInvalidAlgorithmName = errors.New("invalid algorithm name")

	// ErrSymmetricAlgorithm is returned when an HMAC algorithm is configured.
	ErrSymmetricAlgorithm = errors.New("symmetric algorithms are not supported")

	// ErrMissingClaim is returned when a required claim is absent.
	ErrMissingClaim = errors.New("claim is missing")

	// ErrWrongClaimType is returned when a claim does not have the expected JSON type.
	ErrWrongClaimType = errors.New("claim has the wrong type")

	// ErrUnacceptedClaimValue is returned when no value of a claim is accepted.
	ErrUnacceptedClaimValue = errors.New("claim value is not accepted")

	// ErrMalformedToken is returned when the token is not a well formed compact JWS.
	ErrMalformedToken = errors.New("token is malformed")

	// ErrMissingKeyID is returned when the token header has no kid.
	ErrMissingKeyID = errors.New("token header has no key id")

	// ErrKeyAlgorithmMismatch is returned when the resolved key declares an
	// algorithm different from the token header.
	ErrKeyAlgorithmMismatch = errors.New("key algorithm does not match token algorithm")

	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("token signature is invalid")

	// ErrTokenExpired is returned when exp is in the past.
	ErrTokenExpired = errors.New("token is expired")

	// ErrTokenNotYetValid is returned when nbf is in the future.
	ErrTokenNotYetValid = errors.New("token is not valid yet")
)

// UnsupportedAlgorithmError reports an algorithm that is not accepted,
// together with the set that would have been.
type UnsupportedAlgorithmError struct {
	Algorithm Algorithm
	Accepted  []Algorithm
}

func (e *UnsupportedAlgorithmError) Error() string {
	accepted := make([]string, 0, len(e.Accepted))
	for _, alg := range e.Accepted {
		accepted = append(accepted, string(alg))
	}
	return fmt.Sprintf("unsupported algorithm %q, accepted algorithms: [%s]", e.Algorithm, strings.Join(accepted, ", "))
}

// Is lets errors.Is match ErrUnsupportedAlgorithm.
func (e *UnsupportedAlgorithmError) Is(target error) bool {
	return target == ErrUnsupportedAlgorithm
}

// ClaimError reports a failed claim policy check. Kind is one of
// ErrMissingClaim, ErrWrongClaimType or ErrUnacceptedClaimValue.
type ClaimError struct {
	Claim string
	Kind  error
	Value any
}

func (e *ClaimError) Error() string {
	switch e.Kind {
	case ErrMissingClaim:
		return fmt.Sprintf("claim %q is missing", e.Claim)
	case ErrWrongClaimType:
		return fmt.Sprintf("claim %q has the wrong type %T", e.Claim, e.Value)
	default:
		return fmt.Sprintf("claim %q has no accepted value: %v", e.Claim, e.Value)
	}
}

// Unwrap returns the error kind.
func (e *ClaimError) Unwrap() error {
	return e.Kind
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedToken, fmt.Sprintf(format, args...))
}

var (
	errNotAnObject  = errors.New("document is not a JSON object")
	errTrailingData = errors.New("unexpected data after JSON object")
)
