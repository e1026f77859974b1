package keystore

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when no published key has the requested id.
	ErrKeyNotFound = errors.New("key not found")

	// ErrFetchFailed is returned when the JWKS document cannot be downloaded or parsed.
	ErrFetchFailed = errors.New("failed to fetch JWKS")
)

// KeyNotFoundError reports a key id that is not in the store. Refreshed is
// true when a refresh ran as part of the lookup.
type KeyNotFoundError struct {
	KeyID     string
	Refreshed bool
}

func (e *KeyNotFoundError) Error() string {
	if e.Refreshed {
		return fmt.Sprintf("key %q not found after refreshing JWKS", e.KeyID)
	}
	return fmt.Sprintf("key %q not found, refresh not due yet", e.KeyID)
}

// Is lets errors.Is match ErrKeyNotFound.
func (e *KeyNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}

// FetchError wraps a failure to download or parse the JWKS document.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("could not fetch JWKS from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}
