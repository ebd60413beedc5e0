package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an ImageRecord.
type Status string

// Possible record status values
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// IsValid reports whether the status is one of the recognized values.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// HistoryEntry records one successful interactive edit of a record.
// Entries are immutable once appended.
type HistoryEntry struct {
	DataURL   string    `json:"data_url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageRecord is one uploaded image or one generated variant moving
// through the batch queue.
//
// SourceData holds the binary payload backing OriginalDataURL, the
// current "original". Both are replaced together when the user
// promotes an edited result; nothing else mutates them. EditedDataURL
// is set iff the record has completed at least one successful edit
// since it last re-entered the queue via promotion.
type ImageRecord struct {
	ID              uuid.UUID      `json:"id"`
	SourceData      []byte         `json:"-"`
	MediaType       string         `json:"media_type"`
	OriginalDataURL string         `json:"original_data_url"`
	EditedDataURL   string         `json:"edited_data_url,omitempty"`
	Status          Status         `json:"status"`
	Prompt          string         `json:"prompt,omitempty"`
	Error           string         `json:"error,omitempty"`
	Retried         bool           `json:"retried,omitempty"`
	History         []HistoryEntry `json:"history,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// NewImageRecord creates a queued record from a raw image payload and
// its declared media type. Returns an error if validation fails.
func NewImageRecord(data []byte, mediaType string) (*ImageRecord, error) {
	rec := &ImageRecord{
		ID:              uuid.New(),
		SourceData:      data,
		MediaType:       mediaType,
		OriginalDataURL: EncodeDataURL(data, mediaType),
		Status:          StatusQueued,
		CreatedAt:       time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the ImageRecord has valid data.
func (r *ImageRecord) Validate() error {
	if len(r.SourceData) == 0 {
		return ErrEmptyImageData
	}

	if r.MediaType == "" || !strings.Contains(r.MediaType, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidMediaType, r.MediaType)
	}

	if !r.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, r.Status)
	}

	return nil
}

// Clone returns a copy of the record with a fresh identity. The source
// payload is shared (it is never mutated); the history slice is copied
// so appends to one record never show up in another.
func (r *ImageRecord) Clone() *ImageRecord {
	dup := *r
	dup.ID = uuid.New()
	dup.CreatedAt = time.Now().UTC()
	if len(r.History) > 0 {
		dup.History = make([]HistoryEntry, len(r.History))
		copy(dup.History, r.History)
	}
	return &dup
}
