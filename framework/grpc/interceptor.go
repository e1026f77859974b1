// Package grpcauthorizer provides gRPC server interceptors that run the
// authorizer pipeline on the "authorization" metadata value.
package grpcauthorizer

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	authorizer "github.com/oidcauthorizer/oidc-authorizer"
)

// Verifier is satisfied by *authorizer.Authorizer.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*authorizer.Identity, error)
}

// Interceptor authenticates unary and streaming calls.
type Interceptor struct {
	verifier  Verifier
	metadata  string
	excluded  map[string]struct{}
	logger    authorizer.Logger
	denyError error
}

// New creates an Interceptor.
func New(v Verifier, opts ...Option) *Interceptor {
	i := &Interceptor{
		verifier:  v,
		metadata:  "authorization",
		excluded:  map[string]struct{}{},
		logger:    authorizer.NopLogger{},
		denyError: status.Error(codes.PermissionDenied, "Forbidden"),
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

func (i *Interceptor) authenticate(ctx context.Context, method string) (context.Context, error) {
	if _, ok := i.excluded[method]; ok {
		i.logger.Debug("Method excluded from verification", "method", method)
		return ctx, nil
	}

	identity, err := i.verifier.Verify(ctx, authorizationFromMetadata(ctx, i.metadata))
	if err != nil {
		i.logger.Info("Rejecting call", "method", method, "error", err)
		return nil, i.denyError
	}

	return authorizer.WithIdentity(ctx, identity), nil
}

// first value wins; an absent key yields "" which the verifier rejects
func authorizationFromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// UnaryServerInterceptor returns the unary interceptor.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		authCtx, err := i.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns the streaming interceptor.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := i.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
