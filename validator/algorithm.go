package validator

import (
	"fmt"
	"sort"

	"github.com/lestrrat-go/jwx/v3/jwa"
)

// Algorithm is a JWS signature algorithm name as it appears in the alg header.
type Algorithm string

// Supported signature algorithms.
const (
	ES256 = Algorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = Algorithm("ES384") // ECDSA using P-384 and SHA-384
	RS256 = Algorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = Algorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = Algorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	PS256 = Algorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = Algorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = Algorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
	EdDSA = Algorithm("EdDSA")
)

// Recognized but never accepted.
const (
	HS256 = Algorithm("HS256")
	HS384 = Algorithm("HS384")
	HS512 = Algorithm("HS512")
	ES512 = Algorithm("ES512")
	None  = Algorithm("none")
)

var supportedAlgorithms = map[Algorithm]func() jwa.SignatureAlgorithm{
	ES256: jwa.ES256,
	ES384: jwa.ES384,
	RS256: jwa.RS256,
	RS384: jwa.RS384,
	RS512: jwa.RS512,
	PS256: jwa.PS256,
	PS384: jwa.PS384,
	PS512: jwa.PS512,
	EdDSA: jwa.EdDSA,
}

var symmetricAlgorithms = map[Algorithm]bool{
	HS256: true,
	HS384: true,
	HS512: true,
}

var recognizedAlgorithms = map[Algorithm]bool{
	ES512: true,
	None:  true,
}

// SupportedAlgorithms returns the asymmetric family in a stable order.
func SupportedAlgorithms() []Algorithm {
	algs := make([]Algorithm, 0, len(supportedAlgorithms))
	for alg := range supportedAlgorithms {
		algs = append(algs, alg)
	}
	sortAlgorithms(algs)
	return algs
}

// Supported reports whether alg belongs to the asymmetric family.
func (a Algorithm) Supported() bool {
	_, ok := supportedAlgorithms[a]
	return ok
}

// JWA returns the jwx representation of a supported algorithm.
func (a Algorithm) JWA() (jwa.SignatureAlgorithm, bool) {
	fn, ok := supportedAlgorithms[a]
	if !ok {
		var zero jwa.SignatureAlgorithm
		return zero, false
	}
	return fn(), true
}

// ParseAlgorithm validates an algorithm name. Names are case sensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	alg := Algorithm(name)
	switch {
	case alg.Supported():
		return alg, nil
	case symmetricAlgorithms[alg]:
		return "", fmt.Errorf("%w: %s", ErrSymmetricAlgorithm, name)
	case recognizedAlgorithms[alg]:
		return "", &UnsupportedAlgorithmError{Algorithm: alg, Accepted: SupportedAlgorithms()}
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAlgorithmName, name)
	}
}

// AlgorithmPolicy is the set of algorithms a token header may name.
type AlgorithmPolicy struct {
	accepted map[Algorithm]struct{}
}

// NewAlgorithmPolicy builds a policy from algorithm names. With no names
// every supported algorithm is accepted.
func NewAlgorithmPolicy(names ...string) (*AlgorithmPolicy, error) {
	p := &AlgorithmPolicy{accepted: make(map[Algorithm]struct{}, len(names))}
	for _, name := range names {
		alg, err := ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		p.accepted[alg] = struct{}{}
	}
	return p, nil
}

// Accepts reports whether a token signed with alg may be verified.
func (p *AlgorithmPolicy) Accepts(alg Algorithm) bool {
	if !alg.Supported() {
		return false
	}
	if p == nil || len(p.accepted) == 0 {
		return true
	}
	_, ok := p.accepted[alg]
	return ok
}

// Assert returns an *UnsupportedAlgorithmError when alg is not accepted.
func (p *AlgorithmPolicy) Assert(alg Algorithm) error {
	if p.Accepts(alg) {
		return nil
	}
	return &UnsupportedAlgorithmError{Algorithm: alg, Accepted: p.Accepted()}
}

// Accepted returns the effective accepted set in a stable order.
func (p *AlgorithmPolicy) Accepted() []Algorithm {
	if p == nil || len(p.accepted) == 0 {
		return SupportedAlgorithms()
	}
	algs := make([]Algorithm, 0, len(p.accepted))
	for alg := range p.accepted {
		algs = append(algs, alg)
	}
	sortAlgorithms(algs)
	return algs
}

func sortAlgorithms(algs []Algorithm) {
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })
}
