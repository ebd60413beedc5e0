package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// EncodeDataURL encodes a binary payload as a base64 data URL with the
// given media type.
func EncodeDataURL(data []byte, mediaType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL decodes a base64 data URL into its payload and media
// type. Returns ErrInvalidDataURL when the scheme prefix, the base64
// marker, or the encoded-data segment after the comma is missing.
func DecodeDataURL(s string) ([]byte, string, error) {
	const scheme = "data:"
	if !strings.HasPrefix(s, scheme) {
		return nil, "", fmt.Errorf("%w: missing data scheme", ErrInvalidDataURL)
	}

	meta, encoded, found := strings.Cut(s[len(scheme):], ",")
	if !found {
		return nil, "", fmt.Errorf("%w: missing encoded-data segment", ErrInvalidDataURL)
	}

	mediaType, marker, _ := strings.Cut(meta, ";")
	if marker != "base64" {
		return nil, "", fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidDataURL)
	}
	if mediaType == "" {
		return nil, "", fmt.Errorf("%w: missing media type", ErrInvalidDataURL)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty payload", ErrInvalidDataURL)
	}

	return data, mediaType, nil
}
