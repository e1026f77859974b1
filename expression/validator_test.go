package expression

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	var out map[string]any
	require.NoError(t, dec.Decode(&out))
	return out
}

func Test_Validator(t *testing.T) {
	ctx := context.Background()
	header := map[string]any{"alg": "RS256", "typ": "JWT", "kid": "k1"}

	testCases := []struct {
		name       string
		expression string
		claims     string
		wantErr    error
	}{
		{name: "empty expression", expression: "", claims: `{}`},
		{name: "whitespace expression", expression: "  \t\n", claims: `{}`},
		{name: "true comparison", expression: `claims.sub != ""`, claims: `{"sub":"user123"}`},
		{name: "false comparison", expression: `claims.sub == ""`, claims: `{"sub":"user123"}`, wantErr: ErrExecution},
		{name: "empty subject", expression: `claims.sub != ""`, claims: `{"sub":""}`, wantErr: ErrExecution},
		{name: "header typ", expression: `header.typ == "JWT"`, claims: `{}`},
		{name: "header alg", expression: `header.alg == "RS256"`, claims: `{}`},
		{name: "has on present claim", expression: `has(claims.email)`, claims: `{"email":"user@example.com"}`},
		{name: "has on missing claim", expression: `!has(claims.email)`, claims: `{"sub":"user123"}`},
		{name: "optional claim missing", expression: `!has(claims.acr) || claims.acr == "urn:mfa"`, claims: `{"sub":"user123"}`},
		{name: "optional claim matching", expression: `!has(claims.acr) || claims.acr == "urn:mfa"`, claims: `{"acr":"urn:mfa"}`},
		{name: "optional claim wrong", expression: `!has(claims.acr) || claims.acr == "urn:mfa"`, claims: `{"acr":"wrong"}`, wantErr: ErrExecution},
		{name: "endsWith", expression: `claims.email.endsWith("@example.com")`, claims: `{"email":"user@example.com"}`},
		{name: "startsWith", expression: `claims.email.startsWith("user")`, claims: `{"email":"user@example.com"}`},
		{name: "contains", expression: `claims.email.contains("@")`, claims: `{"email":"user@example.com"}`},
		{name: "matches", expression: `claims.email.matches("^[a-z]+@[a-z]+\\.[a-z]+$")`, claims: `{"email":"user@example.com"}`},
		{name: "string extension", expression: `claims.email.lowerAscii() == "user@example.com"`, claims: `{"email":"USER@example.com"}`},
		{name: "in list", expression: `"admin" in claims.roles`, claims: `{"roles":["user","admin"]}`},
		{name: "exists", expression: `claims.roles.exists(r, r == "admin")`, claims: `{"roles":["user","admin"]}`},
		{name: "exists without match", expression: `claims.roles.exists(r, r == "superadmin")`, claims: `{"roles":["user","admin"]}`, wantErr: ErrExecution},
		{name: "all", expression: `claims.scopes.all(s, s.startsWith("read:"))`, claims: `{"scopes":["read:users","read:posts"]}`},
		{name: "all without match", expression: `claims.scopes.all(s, s.startsWith("read:"))`, claims: `{"scopes":["read:users","write:posts"]}`, wantErr: ErrExecution},
		{name: "and", expression: `claims.sub != "" && claims.email_verified == true`, claims: `{"sub":"user123","email_verified":true}`},
		{name: "or", expression: `claims.role == "admin" || claims.role == "superuser"`, claims: `{"role":"superuser"}`},
		{name: "ternary above", expression: `claims.count > 5 ? true : false`, claims: `{"count":10}`},
		{name: "ternary below", expression: `claims.count > 5 ? true : false`, claims: `{"count":3}`, wantErr: ErrExecution},
		{name: "fractional number", expression: `claims.score > 0.5`, claims: `{"score":0.75}`},
		{name: "null claim", expression: `claims.nickname == null`, claims: `{"nickname":null}`},
		{name: "nested object", expression: `claims.realm_access.roles.exists(r, r == "ops")`, claims: `{"realm_access":{"roles":["ops"]}}`},
		{name: "aud string", expression: `claims.aud == "my-client-id"`, claims: `{"aud":"my-client-id"}`},
		{name: "aud array", expression: `"my-client-id" in claims.aud`, claims: `{"aud":["other-client","my-client-id"]}`},
		{name: "missing key", expression: `claims.nonexistent == 1`, claims: `{"sub":"user123"}`, wantErr: ErrExecution},
		{name: "non boolean", expression: `claims.sub`, claims: `{"sub":"user123"}`, wantErr: ErrNonBooleanResult},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run("it handles "+testCase.name, func(t *testing.T) {
			t.Parallel()

			v, err := New(testCase.expression)
			require.NoError(t, err)

			err = v.Validate(ctx, header, decode(t, testCase.claims))
			if testCase.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, testCase.wantErr)
			var exprErr *Error
			require.ErrorAs(t, err, &exprErr)
			assert.Equal(t, testCase.expression, exprErr.Expression)
			assert.Contains(t, err.Error(), testCase.expression)
		})
	}
}

func Test_New(t *testing.T) {
	t.Run("it reports compile errors", func(t *testing.T) {
		_, err := New("invalid syntax {{{{")
		assert.ErrorIs(t, err, ErrCompile)
	})

	t.Run("it reports unknown variables as compile errors", func(t *testing.T) {
		_, err := New(`token.sub == "x"`)
		assert.ErrorIs(t, err, ErrCompile)
	})

	t.Run("it returns the expression", func(t *testing.T) {
		v, err := New(`claims.sub != ""`)
		require.NoError(t, err)
		assert.Equal(t, `claims.sub != ""`, v.Expression())
		assert.True(t, v.Enabled())
	})

	t.Run("it returns an empty expression when disabled", func(t *testing.T) {
		v, err := New("   ")
		require.NoError(t, err)
		assert.Equal(t, "", v.Expression())
		assert.False(t, v.Enabled())

		var zero *Validator
		assert.NoError(t, zero.Validate(context.Background(), nil, nil))
	})

	t.Run("it refuses a zero cost limit", func(t *testing.T) {
		_, err := New(`true`, WithCostLimit(0))
		assert.Error(t, err)
	})
}

func Test_ValidatorCostLimit(t *testing.T) {
	v, err := New(`claims.items.all(a, claims.items.all(b, a + b >= 0))`, WithCostLimit(10))
	require.NoError(t, err)

	items := make([]any, 200)
	for i := range items {
		items[i] = json.Number("1")
	}

	err = v.Validate(context.Background(), nil, map[string]any{"items": items})
	assert.ErrorIs(t, err, ErrExecution)
}

func Test_ValidatorCancelledContext(t *testing.T) {
	v, err := New(`claims.items.all(a, claims.items.all(b, a + b >= 0))`)
	require.NoError(t, err)

	items := make([]any, 1000)
	for i := range items {
		items[i] = json.Number("1")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = v.Validate(ctx, nil, map[string]any{"items": items})
	assert.ErrorIs(t, err, ErrExecution)
}

func Test_ToValueNumbers(t *testing.T) {
	v, err := New(`claims.big > 0u && claims.neg < 0 && claims.f == 1.5`)
	require.NoError(t, err)

	claims := map[string]any{
		"big": json.Number("18446744073709551615"),
		"neg": json.Number("-3"),
		"f":   json.Number("1.5"),
	}
	assert.NoError(t, v.Validate(context.Background(), nil, claims))
}
