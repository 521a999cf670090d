package blob

import (
	"encoding/base64"
	"strings"
)

// DecodePayload accepts either raw bytes or a browser-style
// "data:image/...;base64," payload and returns the raw bytes.
func DecodePayload(payload []byte) ([]byte, error) {
	s := string(payload)
	if !strings.HasPrefix(s, "data:") {
		return payload, nil
	}

	idx := strings.Index(s, ",")
	if idx == -1 {
		return nil, ErrMalformedDataURI
	}

	meta := s[:idx]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, ErrMalformedDataURI
	}

	decoded, err := base64.StdEncoding.DecodeString(s[idx+1:])
	if err != nil {
		return nil, ErrMalformedDataURI
	}
	return decoded, nil
}
