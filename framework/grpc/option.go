package grpcauthorizer

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
)

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithMetadataKey reads the bearer value from a metadata key other than
// "authorization".
func WithMetadataKey(key string) Option {
	return func(i *Interceptor) {
		i.metadata = key
	}
}

// WithExcludedMethods skips verification for the given full method names,
// e.g. "/grpc.health.v1.Health/Check".
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) {
		for _, m := range methods {
			i.excluded[m] = struct{}{}
		}
	}
}

// WithLogger sets the logger used for rejected calls.
func WithLogger(logger authorizer.Logger) Option {
	return func(i *Interceptor) {
		i.logger = logger
	}
}

// WithDenyCode changes the status code returned on failure. The message is
// always "Forbidden".
func WithDenyCode(code codes.Code) Option {
	return func(i *Interceptor) {
		i.denyError = status.Error(code, "Forbidden")
	}
}
