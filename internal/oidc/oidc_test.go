package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer returns a server answering every request with responseCode
// and a body built from the server URL.
func setupTestServer(t *testing.T, responseCode int, body func(serverURL string) string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(responseCode)
		_, _ = w.Write([]byte(body(server.URL)))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetWellKnownEndpointsFromIssuerURL(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		body         func(serverURL string) string
		expectError  string
	}{
		{
			name:         "Successful 200 response with valid JSON",
			responseCode: http.StatusOK,
			body: func(u string) string {
				return `{"issuer":"` + u + `/","jwks_uri":"` + u + `/jwks"}`
			},
		},
		{
			name:         "Issuer without trailing slash",
			responseCode: http.StatusOK,
			body: func(u string) string {
				return `{"issuer":"` + u + `","jwks_uri":"` + u + `/jwks"}`
			},
		},
		{
			name:         "404 Not Found response",
			responseCode: http.StatusNotFound,
			body:         func(string) string { return `{"error": "not found"}` },
			expectError:  "unexpected status 404",
		},
		{
			name:         "Malformed JSON response",
			responseCode: http.StatusOK,
			body:         func(u string) string { return `{"jwks_uri": "` + u + `/jwks"` },
			expectError:  "could not decode",
		},
		{
			name:         "Issuer mismatch",
			responseCode: http.StatusOK,
			body: func(u string) string {
				return `{"issuer":"https://evil.example.com/","jwks_uri":"` + u + `/jwks"}`
			},
			expectError: "does not match",
		},
		{
			name:         "Missing jwks_uri",
			responseCode: http.StatusOK,
			body:         func(u string) string { return `{"issuer":"` + u + `/"}` },
			expectError:  "no jwks_uri",
		},
		{
			name:         "Invalid jwks_uri",
			responseCode: http.StatusOK,
			body:         func(u string) string { return `{"issuer":"` + u + `/","jwks_uri":"file:///etc/passwd"}` },
			expectError:  "invalid jwks_uri",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, tt.responseCode, tt.body)
			issuerURL, err := url.Parse(server.URL + "/")
			require.NoError(t, err)

			endpoints, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), server.Client(), *issuerURL, "oidc-authorizer/test")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, server.URL+"/jwks", endpoints.JWKSURI)
		})
	}
}

func TestGetWellKnownEndpointsRequest(t *testing.T) {
	var gotPath, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotUA = r.URL.Path, r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"issuer":"http://` + r.Host + `/realms/main","jwks_uri":"http://` + r.Host + `/certs"}`))
	}))
	defer server.Close()

	issuerURL, _ := url.Parse(server.URL + "/realms/main")
	_, err := GetWellKnownEndpointsFromIssuerURL(context.Background(), server.Client(), *issuerURL, "oidc-authorizer/test")
	require.NoError(t, err)

	assert.Equal(t, "/realms/main/.well-known/openid-configuration", gotPath)
	assert.Equal(t, "oidc-authorizer/test", gotUA)
}

func TestGetWellKnownEndpointsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	issuerURL, _ := url.Parse(server.URL)
	_, err := GetWellKnownEndpointsFromIssuerURL(ctx, server.Client(), *issuerURL, "")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "context deadline exceeded"))
}
