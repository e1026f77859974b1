package principal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Resolver(t *testing.T) {
	testCases := []struct {
		name      string
		claims    []string
		defaultID string
		token     map[string]any
		want      string
	}{
		{
			name:  "it prefers the first configured claim",
			token: map[string]any{"preferred_username": "alice", "sub": "123"},
			want:  "alice",
		},
		{
			name:  "it falls through to later claims",
			token: map[string]any{"sub": "123"},
			want:  "123",
		},
		{
			name:  "it uses the default when nothing matches",
			token: map[string]any{"email": "a@example.com"},
			want:  "unknown",
		},
		{
			name:      "it uses a custom default",
			defaultID: "anonymous",
			token:     map[string]any{},
			want:      "anonymous",
		},
		{
			name:   "it honours a custom order",
			claims: []string{"email", "sub"},
			token:  map[string]any{"sub": "123", "email": "a@example.com"},
			want:   "a@example.com",
		},
		{
			name:   "it renders numbers as json",
			claims: []string{"uid"},
			token:  map[string]any{"uid": json.Number("42")},
			want:   "42",
		},
		{
			name:   "it renders arrays as json",
			claims: []string{"groups"},
			token:  map[string]any{"groups": []any{"a", "b"}},
			want:   `["a","b"]`,
		},
		{
			name:   "it treats a null claim as present",
			claims: []string{"nick", "sub"},
			token:  map[string]any{"nick": nil, "sub": "123"},
			want:   "null",
		},
		{
			name:   "it uses the default for an empty search list",
			claims: []string{},
			token:  map[string]any{"sub": "123"},
			want:   "unknown",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			r := NewResolver(testCase.claims, testCase.defaultID)
			assert.Equal(t, testCase.want, r.Resolve(testCase.token))
		})
	}
}

func Test_Render(t *testing.T) {
	assert.Equal(t, "plain", Render("plain"))
	assert.Equal(t, "true", Render(true))
	assert.Equal(t, `{"a":1}`, Render(map[string]any{"a": json.Number("1")}))
	assert.Equal(t, "1.5", Render(1.5))
}
