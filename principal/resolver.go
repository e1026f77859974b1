// Package principal picks the principal id reported for an allowed request.
package principal

import (
	"encoding/json"
	"fmt"
)

// Defaults used when nothing is configured.
const (
	DefaultID = "unknown"
)

// DefaultClaims is the default claim search order.
var DefaultClaims = []string{"preferred_username", "sub"}

// Resolver walks an ordered list of claim names and returns the first one
// present in the token.
type Resolver struct {
	claims    []string
	defaultID string
}

// NewResolver returns a resolver. A nil claim list uses DefaultClaims; an
// empty default uses DefaultID.
func NewResolver(claims []string, defaultID string) *Resolver {
	if claims == nil {
		claims = DefaultClaims
	}
	if defaultID == "" {
		defaultID = DefaultID
	}
	return &Resolver{
		claims:    append([]string(nil), claims...),
		defaultID: defaultID,
	}
}

// Claims returns the search order.
func (r *Resolver) Claims() []string {
	return append([]string(nil), r.claims...)
}

// DefaultID returns the fallback principal.
func (r *Resolver) DefaultID() string {
	return r.defaultID
}

// Resolve returns the first present claim rendered with Render, or the
// default id.
func (r *Resolver) Resolve(claims map[string]any) string {
	for _, name := range r.claims {
		if value, ok := claims[name]; ok {
			return Render(value)
		}
	}
	return r.defaultID
}

// Render turns a claim value into text: strings verbatim, anything else as
// compact JSON.
func Render(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}
