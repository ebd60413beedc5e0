package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImageRecord(t *testing.T) {
	t.Parallel()

	rec, err := NewImageRecord([]byte{1, 2, 3}, "image/png")
	require.NoError(t, err)

	assert.NotEqual(t, rec.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, StatusQueued, rec.Status)
	assert.Equal(t, EncodeDataURL([]byte{1, 2, 3}, "image/png"), rec.OriginalDataURL)
	assert.Empty(t, rec.EditedDataURL)
	assert.Empty(t, rec.History)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestNewImageRecordValidation(t *testing.T) {
	t.Parallel()

	_, err := NewImageRecord(nil, "image/png")
	assert.ErrorIs(t, err, ErrEmptyImageData)

	_, err = NewImageRecord([]byte{1}, "")
	assert.ErrorIs(t, err, ErrInvalidMediaType)

	_, err = NewImageRecord([]byte{1}, "png")
	assert.ErrorIs(t, err, ErrInvalidMediaType)
}

func TestStatusIsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusError} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, Status("pending").IsValid())
}

func TestClone(t *testing.T) {
	t.Parallel()

	rec, err := NewImageRecord([]byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	rec.Prompt = "original prompt"
	rec.History = []HistoryEntry{{DataURL: "data:image/png;base64,aGk=", Prompt: "p", Timestamp: time.Now()}}

	dup := rec.Clone()

	assert.NotEqual(t, rec.ID, dup.ID)
	assert.Equal(t, rec.Prompt, dup.Prompt)
	assert.Equal(t, rec.MediaType, dup.MediaType)

	// The history must be independent between clones.
	dup.History = append(dup.History, HistoryEntry{Prompt: "second"})
	assert.Len(t, rec.History, 1)
}
