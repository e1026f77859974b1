/*
Package oidc discovers the JWKS location of an OpenID Connect provider from
its discovery document:

	https://issuer.example.com/.well-known/openid-configuration

Only the issuer and jwks_uri members are read. The issuer published in the
document must match the configured issuer URL, ignoring a trailing slash.

	issuerURL, _ := url.Parse("https://auth.example.com/")
	client := &http.Client{Timeout: 10 * time.Second}

	endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, client, *issuerURL, "oidc-authorizer/1.0.0")
	if err != nil {
	    // network failure, non 200 status, invalid JSON, issuer mismatch
	    // or missing jwks_uri
	}
	jwksURI := endpoints.JWKSURI

See OpenID Connect Discovery 1.0,
https://openid.net/specs/openid-connect-discovery-1_0.html
*/
package oidc
