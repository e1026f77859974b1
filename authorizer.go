package authorizer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oidcauthorizer/oidc-authorizer/expression"
	"github.com/oidcauthorizer/oidc-authorizer/keystore"
	"github.com/oidcauthorizer/oidc-authorizer/principal"
	"github.com/oidcauthorizer/oidc-authorizer/validator"
)

// Authorizer turns bearer tokens into allow or deny policies. It holds only
// read-only configuration besides the key resolver and is safe for
// concurrent use.
type Authorizer struct {
	keys       KeyResolver
	algorithms *validator.AlgorithmPolicy
	issuers    *validator.ClaimPolicy
	audiences  *validator.ClaimPolicy
	policy     *expression.Validator
	principals *principal.Resolver
	verifier   *validator.TokenVerifier
	logger     Logger
	metrics    Metrics
	tracer     trace.Tracer
}

// New creates an Authorizer. WithKeyResolver is required; everything else
// defaults to the permissive settings: any supported algorithm, any issuer,
// any audience, no policy expression, principal from preferred_username or
// sub and a 60 second clock skew.
func New(opts ...Option) (*Authorizer, error) {
	a := &Authorizer{
		issuers:    validator.NewClaimPolicy("iss"),
		audiences:  validator.NewClaimPolicy("aud"),
		principals: principal.NewResolver(nil, ""),
		logger:     NopLogger{},
		metrics:    NoopMetrics{},
		tracer:     defaultTracer(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if a.keys == nil {
		return nil, errors.New("key resolver is required (use WithKeyResolver)")
	}

	if a.algorithms == nil {
		algorithms, err := validator.NewAlgorithmPolicy()
		if err != nil {
			return nil, err
		}
		a.algorithms = algorithms
	}

	if a.policy == nil {
		policy, err := expression.New("")
		if err != nil {
			return nil, err
		}
		a.policy = policy
	}

	if a.verifier == nil {
		verifier, err := validator.NewTokenVerifier()
		if err != nil {
			return nil, err
		}
		a.verifier = verifier
	}

	return a, nil
}

// HandleRequest has the signature expected by lambda.Start. It never
// returns an error: every failure becomes a deny policy.
func (a *Authorizer) HandleRequest(ctx context.Context, req Request) (Response, error) {
	return a.Authorize(ctx, req), nil
}

// Authorize evaluates req and returns the policy for its method ARN.
func (a *Authorizer) Authorize(ctx context.Context, req Request) Response {
	identity, err := a.decide(ctx, "authorizer.Authorize", req.AuthorizationToken, req.MethodArn)
	if err != nil {
		return Deny(req.MethodArn)
	}
	return Allow(identity.PrincipalID, req.MethodArn, identity.Context)
}

// Verify runs the validation pipeline on an authorization value of the form
// "Bearer <token>". Failures are returned as *DenialError. Every decision is
// logged, counted and traced the same way Authorize does it.
func (a *Authorizer) Verify(ctx context.Context, authorization string) (*Identity, error) {
	return a.decide(ctx, "authorizer.Verify", authorization, "")
}

// decide wraps verify with the span, metrics and log line of one decision.
func (a *Authorizer) decide(ctx context.Context, spanName, authorization, methodArn string) (*Identity, error) {
	var spanOpts []trace.SpanStartOption
	if methodArn != "" {
		spanOpts = append(spanOpts, trace.WithAttributes(attribute.String("aws.method_arn", methodArn)))
	}
	ctx, span := a.tracer.Start(ctx, spanName, spanOpts...)
	defer span.End()

	start := time.Now()
	identity, err := a.verify(ctx, authorization)
	duration := time.Since(start)

	if err != nil {
		var denial *DenialError
		if !errors.As(err, &denial) {
			denial = deny(StageVerifyingToken, ErrorCodeTokenMalformed, "verification failed", err)
		}

		span.SetAttributes(
			attribute.String("authorizer.decision", EffectDeny),
			attribute.String("authorizer.stage", string(denial.Stage)),
			attribute.String("authorizer.code", denial.Code),
		)
		span.SetStatus(codes.Error, denial.Code)

		a.metrics.IncCounter(MetricDecisions, map[string]string{"decision": "deny", "stage": string(denial.Stage)})
		a.metrics.ObserveHistogram(MetricDecisionDuration, duration.Seconds(), map[string]string{"decision": "deny"})
		a.logger.Info("Denying request", withMethodArn(methodArn,
			"stage", denial.Stage,
			"code", denial.Code,
			"reason", denial.Message,
			"error", denial.Details,
			"duration", duration,
		)...)

		return nil, denial
	}

	span.SetAttributes(
		attribute.String("authorizer.decision", EffectAllow),
		attribute.String("authorizer.principal", identity.PrincipalID),
	)

	a.metrics.IncCounter(MetricDecisions, map[string]string{"decision": "allow", "stage": "allowed"})
	a.metrics.ObserveHistogram(MetricDecisionDuration, duration.Seconds(), map[string]string{"decision": "allow"})
	a.logger.Debug("Allowing request", withMethodArn(methodArn,
		"principal", identity.PrincipalID,
		"kid", identity.KeyID,
		"alg", identity.Algorithm,
		"duration", duration,
	)...)

	return identity, nil
}

func withMethodArn(methodArn string, args ...any) []any {
	if methodArn == "" {
		return args
	}
	return append(args, "method_arn", methodArn)
}

func (a *Authorizer) verify(ctx context.Context, authorization string) (*Identity, error) {
	token, err := ExtractBearerToken(authorization)
	if err != nil {
		return nil, deny(StageExtractingToken, ErrorCodeTokenMissing, "no bearer token", err)
	}

	header, err := validator.ParseHeader(token)
	if err != nil {
		return nil, deny(StageParsingHeader, ErrorCodeTokenMalformed, "could not decode token header", err)
	}

	if err := a.algorithms.Assert(header.Algorithm); err != nil {
		return nil, deny(StageCheckingAlgorithm, ErrorCodeInvalidAlgorithm, "algorithm not accepted", err)
	}

	if header.KeyID == "" {
		return nil, deny(StageResolvingKey, ErrorCodeKeyIDMissing, "token header has no kid", validator.ErrMissingKeyID)
	}

	key, err := a.keys.Resolve(ctx, header.KeyID)
	if err != nil {
		code := ErrorCodeKeyNotFound
		if errors.Is(err, keystore.ErrFetchFailed) {
			code = ErrorCodeJWKSFetchFailed
		}
		return nil, deny(StageResolvingKey, code, "could not resolve signing key", err)
	}

	claims, err := a.verifier.Verify(token, header, key)
	if err != nil {
		return nil, deny(StageVerifyingToken, verificationCode(err), "token verification failed", err)
	}

	if err := a.issuers.Assert(claims); err != nil {
		return nil, deny(StageCheckingIssuer, ErrorCodeInvalidIssuer, "issuer not accepted", err)
	}

	if err := a.audiences.Assert(claims); err != nil {
		return nil, deny(StageCheckingAudience, ErrorCodeInvalidAudience, "audience not accepted", err)
	}

	if err := a.policy.Validate(ctx, header.Raw, claims); err != nil {
		return nil, deny(StageEvaluatingPolicy, ErrorCodePolicyRejected, "policy expression rejected the token", err)
	}

	principalID := a.principals.Resolve(claims)

	return &Identity{
		PrincipalID: principalID,
		KeyID:       header.KeyID,
		Algorithm:   string(header.Algorithm),
		Header:      header.Raw,
		Claims:      claims,
		Context:     ClaimsContext(principalID, claims),
	}, nil
}

func verificationCode(err error) string {
	switch {
	case errors.Is(err, validator.ErrTokenExpired):
		return ErrorCodeTokenExpired
	case errors.Is(err, validator.ErrTokenNotYetValid):
		return ErrorCodeTokenNotYetValid
	case errors.Is(err, validator.ErrKeyAlgorithmMismatch), errors.Is(err, validator.ErrUnsupportedAlgorithm):
		return ErrorCodeInvalidAlgorithm
	case errors.Is(err, validator.ErrInvalidSignature):
		return ErrorCodeInvalidSignature
	default:
		return ErrorCodeTokenMalformed
	}
}
