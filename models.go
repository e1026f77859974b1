package authorizer

import (
	"github.com/oidcauthorizer/oidc-authorizer/principal"
)

// Policy document constants.
const (
	PolicyVersion       = "2012-10-17"
	InvokeAction        = "execute-api:Invoke"
	EffectAllow         = "Allow"
	EffectDeny          = "Deny"
	DeniedPrincipalID   = "none"
	ContextPrincipalKey = "jwt_principal"
	ContextClaimPrefix  = "jwt_claim_"
)

// Request is the API Gateway TOKEN authorizer event.
type Request struct {
	Type               string `json:"type,omitempty"`
	AuthorizationToken string `json:"authorizationToken"`
	MethodArn          string `json:"methodArn"`
}

// Statement is a single IAM policy statement.
type Statement struct {
	Action   string `json:"Action"`
	Effect   string `json:"Effect"`
	Resource string `json:"Resource"`
}

// PolicyDocument is the IAM policy returned to API Gateway.
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Response is the authorizer result.
type Response struct {
	PrincipalID    string            `json:"principalId"`
	PolicyDocument PolicyDocument    `json:"policyDocument"`
	Context        map[string]string `json:"context"`
}

// Allowed reports whether the response grants access.
func (r Response) Allowed() bool {
	return len(r.PolicyDocument.Statement) == 1 && r.PolicyDocument.Statement[0].Effect == EffectAllow
}

// Allow builds an allow response for resource.
func Allow(principalID, resource string, context map[string]string) Response {
	if context == nil {
		context = map[string]string{}
	}
	return Response{
		PrincipalID:    principalID,
		PolicyDocument: policy(EffectAllow, resource),
		Context:        context,
	}
}

// Deny builds the deny response. It is identical for every failure.
func Deny(resource string) Response {
	return Response{
		PrincipalID:    DeniedPrincipalID,
		PolicyDocument: policy(EffectDeny, resource),
		Context:        map[string]string{},
	}
}

func policy(effect, resource string) PolicyDocument {
	return PolicyDocument{
		Version: PolicyVersion,
		Statement: []Statement{{
			Action:   InvokeAction,
			Effect:   effect,
			Resource: resource,
		}},
	}
}

// ClaimsContext builds the context map passed to downstream integrations.
func ClaimsContext(principalID string, claims map[string]any) map[string]string {
	ctx := make(map[string]string, len(claims)+1)
	ctx[ContextPrincipalKey] = principalID
	for name, value := range claims {
		ctx[ContextClaimPrefix+name] = principal.Render(value)
	}
	return ctx
}
