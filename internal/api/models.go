package api

import (
	"time"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
)

// EnqueueImage is one uploaded image in an enqueue request.
type EnqueueImage struct {
	DataURL string `json:"data_url" validate:"required"`
	Prompt  string `json:"prompt"`
}

// EnqueueRequest adds images to the queue.
type EnqueueRequest struct {
	Images []EnqueueImage `json:"images" validate:"required,min=1,dive"`
}

// StartBatchRequest configures a batch run.
type StartBatchRequest struct {
	GlobalPrompt         string   `json:"global_prompt"`
	Mode                 string   `json:"mode"                   validate:"omitempty,oneof=tags natural"`
	AutoTag              bool     `json:"auto_tag"`
	Randomize            bool     `json:"randomize"`
	Categories           []string `json:"categories"`
	RepeatCount          int      `json:"repeat_count"           validate:"omitempty,gte=1,lte=20"`
	RerandomizePerRepeat bool     `json:"rerandomize_per_repeat"`
}

// EditImageRequest runs one interactive edit session.
type EditImageRequest struct {
	Prompt       string `json:"prompt"`
	AutoTag      bool   `json:"auto_tag"`
	HistoryIndex *int   `json:"history_index"`
}

// TagImagesRequest runs a bulk tagging pass. Empty IDs means every
// queued record; Overwrite re-tags records that already have a prompt.
type TagImagesRequest struct {
	IDs       []string `json:"ids"`
	Overwrite bool     `json:"overwrite"`
}

// RandomizeRequest applies a randomization pass to queued records.
type RandomizeRequest struct {
	Categories []string `json:"categories" validate:"required,min=1"`
	Mode       string   `json:"mode"       validate:"omitempty,oneof=tags natural"`
}

// PromptRequest carries a single prompt (enhance, pin, history ops).
type PromptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// HistoryEntryResponse is one interactive edit in a record's history.
type HistoryEntryResponse struct {
	DataURL   string    `json:"data_url"`
	Prompt    string    `json:"prompt"`
	Timestamp time.Time `json:"timestamp"`
}

// ImageResponse is the API shape of one image record.
type ImageResponse struct {
	ID              string                 `json:"id"`
	Status          string                 `json:"status"`
	MediaType       string                 `json:"media_type"`
	OriginalDataURL string                 `json:"original_data_url"`
	EditedDataURL   string                 `json:"edited_data_url,omitempty"`
	Prompt          string                 `json:"prompt,omitempty"`
	Error           string                 `json:"error,omitempty"`
	Retried         bool                   `json:"retried,omitempty"`
	History         []HistoryEntryResponse `json:"history,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

// NewImageResponse converts a domain record to its API shape.
func NewImageResponse(rec *domain.ImageRecord) ImageResponse {
	resp := ImageResponse{
		ID:              rec.ID.String(),
		Status:          string(rec.Status),
		MediaType:       rec.MediaType,
		OriginalDataURL: rec.OriginalDataURL,
		EditedDataURL:   rec.EditedDataURL,
		Prompt:          rec.Prompt,
		Error:           rec.Error,
		Retried:         rec.Retried,
		CreatedAt:       rec.CreatedAt,
	}
	for _, entry := range rec.History {
		resp.History = append(resp.History, HistoryEntryResponse{
			DataURL:   entry.DataURL,
			Prompt:    entry.Prompt,
			Timestamp: entry.Timestamp,
		})
	}
	return resp
}

// NewImageListResponse converts a record slice.
func NewImageListResponse(recs []*domain.ImageRecord) []ImageResponse {
	out := make([]ImageResponse, len(recs))
	for i, rec := range recs {
		out[i] = NewImageResponse(rec)
	}
	return out
}

// CountResponse reports how many records an operation touched.
type CountResponse struct {
	Count int `json:"count"`
}

// PromptListResponse carries a prompt list (history or pins).
type PromptListResponse struct {
	Prompts []string `json:"prompts"`
}

// EnhanceResponse carries an improved prompt.
type EnhanceResponse struct {
	Prompt string `json:"prompt"`
}

// StatusResponse reports batch progress and the daily counter.
type StatusResponse struct {
	State          string `json:"state"`
	Total          int    `json:"total"`
	Processed      int    `json:"processed"`
	Queued         int    `json:"queued"`
	Processing     int    `json:"processing"`
	Completed      int    `json:"completed"`
	Errored        int    `json:"errored"`
	ProcessedToday int    `json:"processed_today"`
}
