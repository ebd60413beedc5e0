package api

import (
	"errors"
	"net/http"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/archive"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/batch"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/session"
)

// mapError translates core sentinel errors into an HTTP status and a
// client-safe message. Anything unrecognized becomes a generic 500.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, queue.ErrRecordNotFound),
		errors.Is(err, session.ErrNoSuchHistoryEntry):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, batch.ErrAlreadyRunning),
		errors.Is(err, batch.ErrNotRunning),
		errors.Is(err, queue.ErrAlreadyProcessing),
		errors.Is(err, queue.ErrRecordHeld),
		errors.Is(err, queue.ErrNotPromotable),
		errors.Is(err, session.ErrRecordBusy),
		errors.Is(err, session.ErrSessionActive):
		return http.StatusConflict, err.Error()

	case errors.Is(err, batch.ErrValidation),
		errors.Is(err, batch.ErrNothingToProcess),
		errors.Is(err, session.ErrEmptyPrompt),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidDataURL),
		errors.Is(err, domain.ErrEmptyImageData),
		errors.Is(err, domain.ErrInvalidMediaType),
		errors.Is(err, editing.ErrInvalidImage),
		errors.Is(err, archive.ErrNoItems):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, editing.ErrRateLimited):
		return http.StatusTooManyRequests, "upstream model is rate limited, try again later"

	case errors.Is(err, editing.ErrContentBlocked):
		return http.StatusUnprocessableEntity, "request was blocked by the model's safety filters"

	case errors.Is(err, editing.ErrEmptyResponse):
		return http.StatusBadGateway, "upstream model returned no usable result"

	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}

// writeError maps err and sends the standard error response.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := mapError(err)
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}
