package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/archive"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/batch"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/session"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{queue.ErrRecordNotFound, http.StatusNotFound},
		{session.ErrNoSuchHistoryEntry, http.StatusNotFound},
		{batch.ErrAlreadyRunning, http.StatusConflict},
		{batch.ErrNotRunning, http.StatusConflict},
		{queue.ErrAlreadyProcessing, http.StatusConflict},
		{queue.ErrRecordHeld, http.StatusConflict},
		{queue.ErrNotPromotable, http.StatusConflict},
		{session.ErrRecordBusy, http.StatusConflict},
		{session.ErrSessionActive, http.StatusConflict},
		{batch.ErrValidation, http.StatusBadRequest},
		{batch.ErrNothingToProcess, http.StatusBadRequest},
		{session.ErrEmptyPrompt, http.StatusBadRequest},
		{domain.ErrInvalidDataURL, http.StatusBadRequest},
		{archive.ErrNoItems, http.StatusBadRequest},
		{editing.ErrRateLimited, http.StatusTooManyRequests},
		{editing.ErrContentBlocked, http.StatusUnprocessableEntity},
		{editing.ErrEmptyResponse, http.StatusBadGateway},
		{errors.New("anything else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, msg := mapError(tt.err)
		assert.Equal(t, tt.status, status, "error: %v", tt.err)
		assert.NotEmpty(t, msg)
	}

	// Wrapped sentinels map the same way.
	status, _ := mapError(fmt.Errorf("context: %w", editing.ErrRateLimited))
	assert.Equal(t, http.StatusTooManyRequests, status)
}
