// Package echoauthorizer protects echo routes with the authorizer pipeline.
package echoauthorizer

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
)

// DefaultIdentityKey is the echo context key the identity is stored under.
const DefaultIdentityKey = "identity"

// Verifier is satisfied by *authorizer.Authorizer.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*authorizer.Identity, error)
}

type config struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
	skipper      func(echo.Context) bool
}

// New returns an echo middleware that verifies the Authorization header.
func New(v Verifier, opts ...Option) echo.MiddlewareFunc {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		contextKey:   DefaultIdentityKey,
		skipper:      func(echo.Context) bool { return false },
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.skipper(c) {
				return next(c)
			}

			req := c.Request()
			identity, err := v.Verify(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return cfg.errorHandler(c, err)
			}

			c.Set(cfg.contextKey, identity)
			c.SetRequest(req.WithContext(authorizer.WithIdentity(req.Context(), identity)))
			return next(c)
		}
	}
}

// The body never says why. *authorizer.Authorizer logs the reason in Verify.
func defaultErrorHandler(c echo.Context, _ error) error {
	return c.JSON(http.StatusForbidden, map[string]string{
		"message": "Forbidden",
	})
}

// GetIdentity extracts the identity from the echo context.
func GetIdentity(c echo.Context, contextKey string) (*authorizer.Identity, bool) {
	if contextKey == "" {
		contextKey = DefaultIdentityKey
	}
	identity, ok := c.Get(contextKey).(*authorizer.Identity)
	return identity, ok && identity != nil
}
