package authorizer

import (
	"errors"
	"fmt"
)

// ErrDenied is matched by every *DenialError.
var ErrDenied = errors.New("request denied")

// Stage names the pipeline step that rejected a request.
type Stage string

// Pipeline stages.
const (
	StageExtractingToken    Stage = "extracting_token"
	StageParsingHeader      Stage = "parsing_header"
	StageCheckingAlgorithm  Stage = "checking_algorithm"
	StageResolvingKey       Stage = "resolving_key"
	StageVerifyingToken     Stage = "verifying_token"
	StageCheckingIssuer     Stage = "checking_issuer"
	StageCheckingAudience   Stage = "checking_audience"
	StageEvaluatingPolicy   Stage = "evaluating_policy"
	StageResolvingPrincipal Stage = "resolving_principal"
)

// Error codes for logs and metrics.
const (
	ErrorCodeTokenMissing     = "token_missing"
	ErrorCodeTokenMalformed   = "token_malformed"
	ErrorCodeInvalidAlgorithm = "invalid_algorithm"
	ErrorCodeKeyIDMissing     = "key_id_missing"
	ErrorCodeKeyNotFound      = "jwks_key_not_found"
	ErrorCodeJWKSFetchFailed  = "jwks_fetch_failed"
	ErrorCodeInvalidSignature = "invalid_signature"
	ErrorCodeTokenExpired     = "token_expired"
	ErrorCodeTokenNotYetValid = "token_not_yet_valid"
	ErrorCodeInvalidIssuer    = "invalid_issuer"
	ErrorCodeInvalidAudience  = "invalid_audience"
	ErrorCodePolicyRejected   = "policy_rejected"
)

// DenialError describes why a request was denied. It is meant for local
// diagnostics only; callers of the authorizer only ever see a deny policy.
type DenialError struct {
	Stage   Stage
	Code    string
	Message string
	Details error
}

func deny(stage Stage, code, message string, details error) *DenialError {
	return &DenialError{Stage: stage, Code: code, Message: message, Details: details}
}

// Error returns a string representation of the error.
func (e *DenialError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Stage, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s (%s): %s", e.Stage, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DenialError) Unwrap() error {
	return e.Details
}

// Is allows the error to match ErrDenied.
func (e *DenialError) Is(target error) bool {
	return target == ErrDenied
}
