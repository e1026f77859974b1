package validator

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Header is the protected JWS header of a token, decoded without any
// signature check.
type Header struct {
	Algorithm Algorithm
	KeyID     string
	Type      string

	// Raw is the full header document. Numbers are json.Number.
	Raw map[string]any
}

// ParseHeader decodes the header segment of a compact JWS.
func ParseHeader(token string) (*Header, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return nil, err
	}

	segment, _, _ := strings.Cut(token, ".")
	decoded, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, malformed("failed to decode header: %v", err)
	}

	raw, err := decodeObject(decoded)
	if err != nil {
		return nil, malformed("failed to parse header: %v", err)
	}

	header := &Header{Raw: raw}

	alg, ok := raw["alg"].(string)
	if !ok || alg == "" {
		return nil, malformed("header has no alg")
	}
	header.Algorithm = Algorithm(alg)

	if kid, present := raw["kid"]; present {
		s, ok := kid.(string)
		if !ok {
			return nil, malformed("header kid must be a string")
		}
		header.KeyID = s
	}

	if typ, present := raw["typ"]; present {
		s, ok := typ.(string)
		if !ok {
			return nil, malformed("header typ must be a string")
		}
		header.Type = s
	}

	return header, nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number.
func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotAnObject
	}
	if dec.More() {
		return nil, errTrailingData
	}
	return doc, nil
}
