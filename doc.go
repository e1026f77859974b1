/*
Package authorizer implements an AWS API Gateway token authorizer that
validates OIDC access tokens (JWTs) against the signing keys published by an
identity provider.

For every request the Authorizer runs a fixed pipeline:

 1. extract the token from a "Bearer " authorization value
 2. decode the JWS header without verifying it
 3. check the header alg against the accepted algorithm set
 4. require a kid and resolve it through the key store
 5. verify the signature, exp and nbf
 6. check the iss and aud claims against their accepted values
 7. evaluate the optional CEL policy expression
 8. pick the principal id and build the allow policy

A failure at any stage produces the same deny policy. The reason is logged
and counted locally but never returned to the caller.

# Basic usage

	store, err := keystore.New(keystore.WithJWKSURI(jwksURI))
	if err != nil {
	    log.Fatal(err)
	}

	auth, err := authorizer.New(
	    authorizer.WithKeyResolver(store),
	    authorizer.WithAcceptedIssuers("https://issuer.example.com/"),
	    authorizer.WithAcceptedAudiences("my-api"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	lambda.Start(auth.HandleRequest)

# Responses

An allow response carries the principal id and a context map holding
jwt_principal plus one jwt_claim_<name> entry per token claim. Strings are
copied as is, other values are rendered as JSON:

	{
	  "principalId": "alice",
	  "policyDocument": {
	    "Version": "2012-10-17",
	    "Statement": [{"Action": "execute-api:Invoke", "Effect": "Allow", "Resource": "arn:..."}]
	  },
	  "context": {"jwt_principal": "alice", "jwt_claim_sub": "123", "jwt_claim_exp": "1700000000"}
	}

A deny response always has principal id "none", the same resource and an
empty context.

# Observability

Logger adapters exist for logrus, zap and zerolog. PrometheusMetrics records
decision counters and latency. Spans are created through OpenTelemetry; see
NewZipkinTracerProvider for a ready made exporter setup.

# Embedding

Verify runs the same pipeline and returns an *Identity or a *DenialError. The
framework/gin, framework/echo and framework/grpc packages use it to protect
ordinary services.
*/
package authorizer
