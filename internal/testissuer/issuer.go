// Package testissuer runs an in-process identity provider for tests. It
// serves a JWKS document over httptest, counts how often it is fetched and
// signs tokens with the matching private keys.
//
//	issuer := testissuer.New(t)
//	issuer.AddKey("RS256", "k1")
//	token := issuer.Sign("k1", issuer.Claims())
package testissuer

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
)

// JWKSPath is where the key set is served.
const JWKSPath = "/.well-known/jwks.json"

var algorithms = map[string]func() jwa.SignatureAlgorithm{
	"ES256": jwa.ES256,
	"ES384": jwa.ES384,
	"RS256": jwa.RS256,
	"RS384": jwa.RS384,
	"RS512": jwa.RS512,
	"PS256": jwa.PS256,
	"PS384": jwa.PS384,
	"PS512": jwa.PS512,
	"EdDSA": jwa.EdDSA,
	"HS256": jwa.HS256,
	"HS384": jwa.HS384,
	"HS512": jwa.HS512,
}

// Algorithm maps an algorithm name to jwx, failing the test on unknown names.
func Algorithm(t testing.TB, name string) jwa.SignatureAlgorithm {
	t.Helper()
	fn, ok := algorithms[name]
	if !ok {
		t.Fatalf("testissuer: unknown algorithm %q", name)
	}
	return fn()
}

type signingKey struct {
	alg     jwa.SignatureAlgorithm
	private any
	public  jwk.Key
}

// Issuer is a fake OIDC provider.
type Issuer struct {
	t      testing.TB
	server *httptest.Server
	hits   atomic.Int64

	mu     sync.Mutex
	keys   map[string]*signingKey
	order  []string
	extra  []json.RawMessage
	status int
	body   []byte
	delay  time.Duration
}

// New starts an issuer that is shut down when the test ends.
func New(t testing.TB) *Issuer {
	t.Helper()

	i := &Issuer{
		t:      t,
		keys:   make(map[string]*signingKey),
		status: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(JWKSPath, i.handleJWKS)
	mux.HandleFunc("/.well-known/openid-configuration", i.handleDiscovery)
	i.server = httptest.NewServer(mux)
	t.Cleanup(i.server.Close)

	return i
}

// URL is the issuer base URL.
func (i *Issuer) URL() string {
	return i.server.URL
}

// JWKSURL is the location of the key set.
func (i *Issuer) JWKSURL() string {
	return i.server.URL + JWKSPath
}

// Hits returns how many times the key set was requested.
func (i *Issuer) Hits() int64 {
	return i.hits.Load()
}

// AddKey generates a key pair for alg and publishes the public half under
// kid with its alg member set.
func (i *Issuer) AddKey(alg, kid string) jwk.Key {
	return i.addKey(alg, kid, true)
}

// AddKeyWithoutAlgorithm publishes a key that does not declare alg.
func (i *Issuer) AddKeyWithoutAlgorithm(alg, kid string) jwk.Key {
	return i.addKey(alg, kid, false)
}

func (i *Issuer) addKey(alg, kid string, declareAlg bool) jwk.Key {
	i.t.Helper()

	private, public := GenerateKey(i.t, alg)
	if err := public.Set(jwk.KeyIDKey, kid); err != nil {
		i.t.Fatalf("testissuer: set kid: %v", err)
	}
	if declareAlg {
		if err := public.Set(jwk.AlgorithmKey, Algorithm(i.t, alg)); err != nil {
			i.t.Fatalf("testissuer: set alg: %v", err)
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if _, exists := i.keys[kid]; !exists {
		i.order = append(i.order, kid)
	}
	i.keys[kid] = &signingKey{alg: Algorithm(i.t, alg), private: private, public: public}
	return public
}

// RemoveKey stops publishing kid. Tokens can still be signed with it.
func (i *Issuer) RemoveKey(kid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for n, k := range i.order {
		if k == kid {
			i.order = append(i.order[:n], i.order[n+1:]...)
			return
		}
	}
}

// AddRawEntry publishes an arbitrary entry in the keys array.
func (i *Issuer) AddRawEntry(entry string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.extra = append(i.extra, json.RawMessage(entry))
}

// FailWith makes the endpoint answer with status.
func (i *Issuer) FailWith(status int) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = status
}

// ServeBody replaces the key set document with body.
func (i *Issuer) ServeBody(body string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.body = []byte(body)
}

// Recover undoes FailWith and ServeBody.
func (i *Issuer) Recover() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.status = http.StatusOK
	i.body = nil
}

// Delay slows every key set response down.
func (i *Issuer) Delay(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.delay = d
}

// Claims returns a valid claim set issued by this issuer.
func (i *Issuer) Claims() map[string]any {
	now := time.Now()
	return map[string]any{
		"iss": i.URL(),
		"sub": "user-123",
		"aud": "test-audience",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
}

// Sign signs claims with the key published as kid. The header carries alg,
// kid and typ JWT.
func (i *Issuer) Sign(kid string, claims map[string]any) string {
	return i.SignWithHeader(kid, map[string]any{"kid": kid, "typ": "JWT"}, claims)
}

// SignWithHeader signs claims with the key published as kid using exactly
// the given protected header members plus alg.
func (i *Issuer) SignWithHeader(kid string, header, claims map[string]any) string {
	i.t.Helper()

	i.mu.Lock()
	key, ok := i.keys[kid]
	i.mu.Unlock()
	if !ok {
		i.t.Fatalf("testissuer: no key %q", kid)
	}

	return SignRaw(i.t, key.alg, key.private, header, claims)
}

func (i *Issuer) handleJWKS(w http.ResponseWriter, _ *http.Request) {
	i.hits.Add(1)

	i.mu.Lock()
	status, body, delay := i.status, i.body, i.delay
	entries := make([]any, 0, len(i.order)+len(i.extra))
	for _, kid := range i.order {
		entries = append(entries, i.keys[kid].public)
	}
	for _, raw := range i.extra {
		entries = append(entries, raw)
	}
	i.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if body != nil {
		_, _ = w.Write(body)
		return
	}
	if err := json.NewEncoder(w).Encode(map[string]any{"keys": entries}); err != nil {
		i.t.Errorf("testissuer: encode jwks: %v", err)
	}
}

func (i *Issuer) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":   i.URL() + "/",
		"jwks_uri": i.JWKSURL(),
	})
}

// GenerateKey creates a private key suitable for alg and returns it with
// its public JWK.
func GenerateKey(t testing.TB, alg string) (any, jwk.Key) {
	t.Helper()

	var private, public any
	switch alg {
	case "RS256", "RS384", "RS512", "PS256", "PS384", "PS512":
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("testissuer: generate rsa key: %v", err)
		}
		private, public = k, &k.PublicKey
	case "ES256", "ES384":
		curve := elliptic.P256()
		if alg == "ES384" {
			curve = elliptic.P384()
		}
		k, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			t.Fatalf("testissuer: generate ecdsa key: %v", err)
		}
		private, public = k, &k.PublicKey
	case "EdDSA":
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			t.Fatalf("testissuer: generate ed25519 key: %v", err)
		}
		private, public = priv, pub
	default:
		t.Fatalf("testissuer: cannot generate a key pair for %q", alg)
	}

	key, err := jwk.Import(public)
	if err != nil {
		t.Fatalf("testissuer: import public key: %v", err)
	}
	return private, key
}

// SignRaw signs claims as a compact JWS with any key jwx accepts.
func SignRaw(t testing.TB, alg jwa.SignatureAlgorithm, key any, header, claims map[string]any) string {
	t.Helper()

	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("testissuer: marshal claims: %v", err)
	}

	headers := jws.NewHeaders()
	for name, value := range header {
		if err := headers.Set(name, value); err != nil {
			t.Fatalf("testissuer: set header %q: %v", name, err)
		}
	}

	signed, err := jws.Sign(payload, jws.WithKey(alg, key, jws.WithProtectedHeaders(headers)))
	if err != nil {
		t.Fatalf("testissuer: sign: %v", err)
	}
	return string(signed)
}
