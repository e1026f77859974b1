/*
Package validator holds the token checks that run before and after signature
verification: the algorithm allow-list, accepted-value policies for the
issuer and audience claims, structural parsing of the JWS header and the
signature and lifetime verification itself.

# Algorithms

Only asymmetric algorithms are supported:

  - ES256, ES384 (ECDSA)
  - RS256, RS384, RS512 (RSASSA-PKCS1-v1_5)
  - PS256, PS384, PS512 (RSASSA-PSS)
  - EdDSA (Ed25519)

An AlgorithmPolicy with no configured algorithms accepts every member of this
family. Symmetric algorithms (HS256, HS384, HS512) are rejected at
construction time and at request time, so a token can never be verified with
a public key used as an HMAC secret.

# Claim policies

A ClaimPolicy names a claim and a set of accepted values. An empty set turns
the check off. Otherwise the claim must be present and hold a string or an
array of strings, and at least one of those strings must be accepted:

	issuers := validator.NewClaimPolicy("iss", "https://issuer.example.com/")
	if err := issuers.Assert(claims); err != nil {
	    // *ClaimError, matches ErrMissingClaim, ErrWrongClaimType or
	    // ErrUnacceptedClaimValue
	}

# Verification

TokenVerifier checks the signature with lestrrat-go/jwx and then validates
exp and nbf against the configured clock and leeway. The verified payload is
returned as a generic JSON document with numbers kept as json.Number.
*/
package validator
