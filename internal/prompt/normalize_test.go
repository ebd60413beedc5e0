package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "lowercases and trims",
			raw:  " Red Hair,  Blue Eyes ",
			want: "red hair, blue eyes",
		},
		{
			name: "strips single trailing period",
			raw:  "cat, sitting, window.",
			want: "cat, sitting, window",
		},
		{
			name: "deduplicates preserving first seen",
			raw:  "cat, CAT, dog, cat",
			want: "cat, dog",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
		{
			name: "drops empty segments",
			raw:  "a,,b,",
			want: "a, b",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeTags(tt.raw))
		})
	}
}

func TestMergeTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a, b, c", MergeTags("a, b", "b, c"))
	assert.Equal(t, "c", MergeTags("", "c"))
	assert.Equal(t, "a", MergeTags("a", ""))
}
