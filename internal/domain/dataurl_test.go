package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDataURL(t *testing.T) {
	t.Parallel()

	got := EncodeDataURL([]byte("hi"), "image/png")
	assert.Equal(t, "data:image/png;base64,aGk=", got)
}

func TestDecodeDataURL(t *testing.T) {
	t.Parallel()

	data, mediaType, err := DecodeDataURL("data:image/png;base64,aGk=")
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), data)
	assert.Equal(t, "image/png", mediaType)
}

func TestDecodeDataURLRoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x00, 0xff}
	url := EncodeDataURL(payload, "image/webp")

	data, mediaType, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "image/webp", mediaType)
}

func TestDecodeDataURLErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"missing scheme", "image/png;base64,aGk="},
		{"missing comma", "data:image/png;base64"},
		{"not base64 encoded", "data:image/png,aGk="},
		{"missing media type", "data:;base64,aGk="},
		{"invalid base64 payload", "data:image/png;base64,!!!"},
		{"empty payload", "data:image/png;base64,"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := DecodeDataURL(tt.input)
			assert.ErrorIs(t, err, ErrInvalidDataURL)
		})
	}
}
