package authorizer

// Version is reported in the User-Agent sent to identity providers.
const Version = "1.0.0"

// UserAgent returns the User-Agent used for JWKS and discovery requests.
func UserAgent() string {
	return "oidc-authorizer/" + Version
}
