package authorizer

import (
	"encoding/base64"
	"strings"
)

func splitToken(token string) []string {
	return strings.SplitN(token, ".", 3)
}

func encodeSegment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
