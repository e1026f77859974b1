package ginauthorizer

import "github.com/gin-gonic/gin"

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler replaces the default 403 response.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKey sets the gin context key the identity is stored under.
func WithContextKey(key string) Option {
	return func(cfg *config) {
		cfg.contextKey = key
	}
}

// WithHeader reads the bearer token from a header other than Authorization.
func WithHeader(name string) Option {
	return func(cfg *config) {
		cfg.header = name
	}
}

// WithExcludedPaths lets requests for the given paths through unverified.
func WithExcludedPaths(paths ...string) Option {
	return func(cfg *config) {
		for _, p := range paths {
			cfg.excluded[p] = struct{}{}
		}
	}
}
