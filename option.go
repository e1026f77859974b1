package authorizer

import (
	"context"
	"errors"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"go.opentelemetry.io/otel/trace"

	"github.com/oidcauthorizer/oidc-authorizer/expression"
	"github.com/oidcauthorizer/oidc-authorizer/principal"
	"github.com/oidcauthorizer/oidc-authorizer/validator"
)

// KeyResolver returns the verification key published under a key id.
// *keystore.KeyStore implements it.
type KeyResolver interface {
	Resolve(ctx context.Context, keyID string) (jwk.Key, error)
}

// Option configures an Authorizer.
type Option func(*Authorizer) error

// WithKeyResolver sets the key source. Required.
func WithKeyResolver(keys KeyResolver) Option {
	return func(a *Authorizer) error {
		if keys == nil {
			return errors.New("key resolver cannot be nil")
		}
		a.keys = keys
		return nil
	}
}

// WithAlgorithmPolicy restricts the accepted signature algorithms. By
// default every supported asymmetric algorithm is accepted.
func WithAlgorithmPolicy(policy *validator.AlgorithmPolicy) Option {
	return func(a *Authorizer) error {
		if policy == nil {
			return errors.New("algorithm policy cannot be nil")
		}
		a.algorithms = policy
		return nil
	}
}

// WithAcceptedIssuers sets the accepted iss values. None accepts any issuer.
func WithAcceptedIssuers(issuers ...string) Option {
	return func(a *Authorizer) error {
		a.issuers = validator.NewClaimPolicy("iss", issuers...)
		return nil
	}
}

// WithAcceptedAudiences sets the accepted aud values. None accepts any audience.
func WithAcceptedAudiences(audiences ...string) Option {
	return func(a *Authorizer) error {
		a.audiences = validator.NewClaimPolicy("aud", audiences...)
		return nil
	}
}

// WithPolicyExpression sets the CEL policy evaluated after the claim checks.
func WithPolicyExpression(policy *expression.Validator) Option {
	return func(a *Authorizer) error {
		if policy == nil {
			return errors.New("policy expression cannot be nil")
		}
		a.policy = policy
		return nil
	}
}

// WithPrincipalResolver sets how the principal id is chosen.
func WithPrincipalResolver(resolver *principal.Resolver) Option {
	return func(a *Authorizer) error {
		if resolver == nil {
			return errors.New("principal resolver cannot be nil")
		}
		a.principals = resolver
		return nil
	}
}

// WithTokenVerifier overrides signature and lifetime verification settings.
func WithTokenVerifier(verifier *validator.TokenVerifier) Option {
	return func(a *Authorizer) error {
		if verifier == nil {
			return errors.New("token verifier cannot be nil")
		}
		a.verifier = verifier
		return nil
	}
}

// WithLogger sets the logger. Denials are logged at info, allows at debug.
func WithLogger(logger Logger) Option {
	return func(a *Authorizer) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		a.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(metrics Metrics) Option {
	return func(a *Authorizer) error {
		if metrics == nil {
			return errors.New("metrics cannot be nil")
		}
		a.metrics = metrics
		return nil
	}
}

// WithTracer sets the tracer for authorizer.Authorize spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(a *Authorizer) error {
		if tracer == nil {
			return errors.New("tracer cannot be nil")
		}
		a.tracer = tracer
		return nil
	}
}
