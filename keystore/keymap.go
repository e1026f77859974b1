package keystore

import (
	"encoding/json"
	"sort"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

const encryptionUse = "enc"

// jwksDocument is the outer shape of a JWKS. Entries are parsed one by one
// so a single unusable key does not discard the whole set.
type jwksDocument struct {
	Keys *[]json.RawMessage `json:"keys"`
}

type keyMap map[string]jwk.Key

func (m keyMap) ids() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// buildKeyMap converts JWKS entries into verification keys indexed by kid.
// When two entries share a kid the later one wins.
func buildKeyMap(entries []json.RawMessage, logger Logger) keyMap {
	keys := make(keyMap, len(entries))

	for i, entry := range entries {
		key, err := jwk.ParseKey(entry)
		if err != nil {
			logger.Warn("Skipping JWK that could not be parsed", "index", i, "error", err)
			continue
		}

		kid, ok := key.KeyID()
		if !ok || kid == "" {
			logger.Warn("Skipping JWK without a key id", "index", i)
			continue
		}

		if key.KeyType() == jwa.OctetSeq() {
			logger.Warn("Skipping symmetric JWK", "kid", kid)
			continue
		}

		if use, ok := key.KeyUsage(); ok && use == encryptionUse {
			logger.Warn("Skipping JWK published for encryption", "kid", kid)
			continue
		}

		public, err := jwk.PublicKeyOf(key)
		if err != nil {
			logger.Warn("Skipping JWK without a usable public key", "kid", kid, "error", err)
			continue
		}

		if _, dup := keys[kid]; dup {
			logger.Warn("Duplicate key id in JWKS, keeping the last entry", "kid", kid)
		}
		keys[kid] = public
	}

	return keys
}
