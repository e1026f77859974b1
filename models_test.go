package authorizer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResponseJSON(t *testing.T) {
	t.Run("it serializes an allow response", func(t *testing.T) {
		resp := Allow("alice", methodArn, map[string]string{"jwt_principal": "alice"})
		data, err := json.Marshal(resp)
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"principalId": "alice",
			"policyDocument": {
				"Version": "2012-10-17",
				"Statement": [{"Action": "execute-api:Invoke", "Effect": "Allow", "Resource": "`+methodArn+`"}]
			},
			"context": {"jwt_principal": "alice"}
		}`, string(data))
		assert.True(t, resp.Allowed())
	})

	t.Run("it serializes a deny response with an empty context", func(t *testing.T) {
		resp := Deny(methodArn)
		data, err := json.Marshal(resp)
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"principalId": "none",
			"policyDocument": {
				"Version": "2012-10-17",
				"Statement": [{"Action": "execute-api:Invoke", "Effect": "Deny", "Resource": "`+methodArn+`"}]
			},
			"context": {}
		}`, string(data))
		assert.False(t, resp.Allowed())
	})

	t.Run("it never emits a null context", func(t *testing.T) {
		data, err := json.Marshal(Allow("p", methodArn, nil))
		require.NoError(t, err)
		assert.Contains(t, string(data), `"context":{}`)
	})
}

func Test_RequestJSON(t *testing.T) {
	var req Request
	err := json.Unmarshal([]byte(`{"type":"TOKEN","authorizationToken":"Bearer x","methodArn":"arn:x"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, Request{Type: "TOKEN", AuthorizationToken: "Bearer x", MethodArn: "arn:x"}, req)
}

func Test_ClaimsContext(t *testing.T) {
	ctx := ClaimsContext("p", map[string]any{
		"sub":    "123",
		"n":      json.Number("7"),
		"nested": map[string]any{"a": []any{"b"}},
	})

	assert.Equal(t, map[string]string{
		"jwt_principal":    "p",
		"jwt_claim_sub":    "123",
		"jwt_claim_n":      "7",
		"jwt_claim_nested": `{"a":["b"]}`,
	}, ctx)
}
