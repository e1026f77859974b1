package echoauthorizer

import "github.com/labstack/echo/v4"

// Option is a function that configures the middleware
type Option func(*config)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(cfg *config) {
		cfg.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store the identity
func WithContextKey(key string) Option {
	return func(cfg *config) {
		cfg.contextKey = key
	}
}

// WithSkipper lets requests for which skip returns true through unverified.
func WithSkipper(skip func(echo.Context) bool) Option {
	return func(cfg *config) {
		cfg.skipper = skip
	}
}
