// Package ginauthorizer protects gin routes with the same verification
// pipeline the Lambda authorizer runs.
package ginauthorizer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
)

// DefaultIdentityKey is the gin context key the identity is stored under.
const DefaultIdentityKey = "identity"

var (
	ErrMissingIdentity = errors.New("no identity found in context")
	ErrInvalidIdentity = errors.New("invalid identity type")
)

// Verifier is satisfied by *authorizer.Authorizer.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*authorizer.Identity, error)
}

type config struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
	header       string
	excluded     map[string]struct{}
}

// New returns a middleware that verifies the Authorization header of every
// request. On failure the error handler runs and the chain is aborted.
func New(v Verifier, opts ...Option) gin.HandlerFunc {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultIdentityKey,
		header:       "Authorization",
		excluded:     map[string]struct{}{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(c *gin.Context) {
		if _, ok := cfg.excluded[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		identity, err := v.Verify(c.Request.Context(), c.GetHeader(cfg.header))
		if err != nil {
			cfg.errorHandler(c, err)
			c.Abort()
			return
		}

		c.Set(cfg.contextKey, identity)
		c.Request = c.Request.WithContext(authorizer.WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// The body never says why. *authorizer.Authorizer logs the reason in Verify.
func defaultErrorHandler(c *gin.Context, _ error) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"message": "Forbidden",
	})
}

// GetIdentity returns the identity stored by the middleware.
func GetIdentity(c *gin.Context, contextKey string) (*authorizer.Identity, error) {
	if contextKey == "" {
		contextKey = DefaultIdentityKey
	}
	value, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingIdentity
	}

	identity, ok := value.(*authorizer.Identity)
	if !ok {
		return nil, ErrInvalidIdentity
	}

	return identity, nil
}
