package validator

import "sort"

// ClaimPolicy checks one claim against a set of accepted string values.
type ClaimPolicy struct {
	claim    string
	accepted map[string]struct{}
}

// NewClaimPolicy returns a policy for claim. Empty strings in accepted are
// ignored and an empty set disables the check.
func NewClaimPolicy(claim string, accepted ...string) *ClaimPolicy {
	p := &ClaimPolicy{claim: claim, accepted: make(map[string]struct{}, len(accepted))}
	for _, v := range accepted {
		if v == "" {
			continue
		}
		p.accepted[v] = struct{}{}
	}
	return p
}

// Claim returns the name of the checked claim.
func (p *ClaimPolicy) Claim() string {
	return p.claim
}

// Enabled reports whether any value is configured.
func (p *ClaimPolicy) Enabled() bool {
	return p != nil && len(p.accepted) > 0
}

// AcceptedValues returns the configured values sorted.
func (p *ClaimPolicy) AcceptedValues() []string {
	values := make([]string, 0, len(p.accepted))
	for v := range p.accepted {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

// Accepts reports whether any of values is accepted. A disabled policy
// accepts everything, including no values at all.
func (p *ClaimPolicy) Accepts(values ...string) bool {
	if !p.Enabled() {
		return true
	}
	for _, v := range values {
		if _, ok := p.accepted[v]; ok {
			return true
		}
	}
	return false
}

// Assert checks the policy against a decoded claims document.
func (p *ClaimPolicy) Assert(claims map[string]any) error {
	if !p.Enabled() {
		return nil
	}

	raw, ok := claims[p.claim]
	if !ok {
		return &ClaimError{Claim: p.claim, Kind: ErrMissingClaim}
	}

	var values []string
	switch v := raw.(type) {
	case string:
		values = []string{v}
	case []string:
		values = v
	case []any:
		values = make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return &ClaimError{Claim: p.claim, Kind: ErrWrongClaimType, Value: raw}
			}
			values = append(values, s)
		}
	default:
		return &ClaimError{Claim: p.claim, Kind: ErrWrongClaimType, Value: raw}
	}

	if !p.Accepts(values...) {
		return &ClaimError{Claim: p.claim, Kind: ErrUnacceptedClaimValue, Value: raw}
	}
	return nil
}
