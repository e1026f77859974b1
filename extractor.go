package authorizer

import (
	"errors"
	"strings"
)

// BearerPrefix must start the authorization value. The match is case sensitive.
const BearerPrefix = "Bearer "

var (
	// ErrMissingBearer is returned when the value does not start with BearerPrefix.
	ErrMissingBearer = errors.New("authorization value must start with \"Bearer \"")

	// ErrEmptyToken is returned when nothing follows the prefix.
	ErrEmptyToken = errors.New("authorization value has no token")
)

// ExtractBearerToken returns the token following "Bearer ". Nothing else is
// trimmed or normalized.
func ExtractBearerToken(authorization string) (string, error) {
	token, ok := strings.CutPrefix(authorization, BearerPrefix)
	if !ok {
		return "", ErrMissingBearer
	}
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}
