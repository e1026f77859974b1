package authorizer

import "context"

type contextKey int

const (
	identityKey contextKey = iota
)

// Identity is the result of a successful verification.
type Identity struct {
	PrincipalID string
	KeyID       string
	Algorithm   string

	// Header and Claims are the decoded token documents. Numbers are json.Number.
	Header map[string]any
	Claims map[string]any

	// Context is the map returned to API Gateway on allow.
	Context map[string]string
}

// WithIdentity stores id in ctx. Framework adapters call this after Verify.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}
