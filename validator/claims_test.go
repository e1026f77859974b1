package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ClaimPolicy(t *testing.T) {
	testCases := []struct {
		name     string
		accepted []string
		claims   map[string]any
		wantErr  error
	}{
		{
			name:   "it accepts anything when disabled",
			claims: map[string]any{"aud": 42},
		},
		{
			name:   "it accepts a missing claim when disabled",
			claims: map[string]any{},
		},
		{
			name:     "it accepts a matching string",
			accepted: []string{"a", "b"},
			claims:   map[string]any{"aud": "b"},
		},
		{
			name:     "it accepts an array with one matching element",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": []any{"x", "a"}},
		},
		{
			name:     "it rejects a missing claim",
			accepted: []string{"a"},
			claims:   map[string]any{},
			wantErr:  ErrMissingClaim,
		},
		{
			name:     "it rejects a number",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": 1},
			wantErr:  ErrWrongClaimType,
		},
		{
			name:     "it rejects an array with a non string element",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": []any{"a", true}},
			wantErr:  ErrWrongClaimType,
		},
		{
			name:     "it rejects an object",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": map[string]any{"a": "a"}},
			wantErr:  ErrWrongClaimType,
		},
		{
			name:     "it rejects a non matching string",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": "c"},
			wantErr:  ErrUnacceptedClaimValue,
		},
		{
			name:     "it rejects an empty array",
			accepted: []string{"a"},
			claims:   map[string]any{"aud": []any{}},
			wantErr:  ErrUnacceptedClaimValue,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := NewClaimPolicy("aud", testCase.accepted...).Assert(testCase.claims)
			if testCase.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, testCase.wantErr)
			var claimErr *ClaimError
			if assert.ErrorAs(t, err, &claimErr) {
				assert.Equal(t, "aud", claimErr.Claim)
			}
		})
	}
}

func Test_ClaimPolicyAccepts(t *testing.T) {
	disabled := NewClaimPolicy("iss")
	assert.False(t, disabled.Enabled())
	assert.True(t, disabled.Accepts())
	assert.True(t, disabled.Accepts("anything"))

	policy := NewClaimPolicy("iss", "https://a.example.com/", "", "https://b.example.com/")
	assert.True(t, policy.Enabled())
	assert.Equal(t, []string{"https://a.example.com/", "https://b.example.com/"}, policy.AcceptedValues())
	assert.False(t, policy.Accepts())
	assert.False(t, policy.Accepts(""))
	assert.True(t, policy.Accepts("nope", "https://b.example.com/"))
}
