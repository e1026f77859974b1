package validator

import (
	"fmt"
	"strings"
)

const (
	// maxTokenDots is the number of separators in a compact JWS
	// (header.payload.signature). Encrypted or JSON serialized tokens are
	// not accepted.
	maxTokenDots = 2

	// maxTokenSize bounds the work done on hostile input before any parsing.
	maxTokenSize = 1024 * 1024
)

// ValidateTokenFormat rejects inputs that cannot be a compact JWS before
// anything is decoded.
func ValidateTokenFormat(token string) error {
	if len(token) == 0 {
		return malformed("token is empty")
	}

	if len(token) > maxTokenSize {
		return malformed("token exceeds maximum size (%d bytes)", maxTokenSize)
	}

	if dots := strings.Count(token, "."); dots != maxTokenDots {
		return fmt.Errorf("%w: expected %d segments, got %d", ErrMalformedToken, maxTokenDots+1, dots+1)
	}

	return nil
}
