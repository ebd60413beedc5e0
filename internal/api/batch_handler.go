package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/batch"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
)

// DailyCounter reports how many images were processed today.
type DailyCounter interface {
	DailyCount(ctx context.Context) (int, error)
}

// BatchHandler exposes batch start, cancel, and progress over HTTP.
type BatchHandler struct {
	scheduler *batch.Scheduler
	counter   DailyCounter
	logger    *slog.Logger
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(scheduler *batch.Scheduler, counter DailyCounter, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		scheduler: scheduler,
		counter:   counter,
		logger:    logger.With("component", "batch_handler"),
	}
}

// Start handles POST /api/batch/start.
func (h *BatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartBatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	opts := batch.StartOptions{
		GlobalPrompt:         req.GlobalPrompt,
		AutoTag:              req.AutoTag,
		Randomize:            req.Randomize,
		RepeatCount:          req.RepeatCount,
		RerandomizePerRepeat: req.RerandomizePerRepeat,
	}
	if req.Mode != "" {
		opts.Mode = prompt.Mode(req.Mode)
	}
	for _, c := range req.Categories {
		cat, err := prompt.ParseCategory(c)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		opts.Categories = append(opts.Categories, cat)
	}

	if err := h.scheduler.Start(r.Context(), opts); err != nil {
		writeError(w, r, err)
		return
	}

	h.logger.Info("batch started",
		"auto_tag", opts.AutoTag,
		"randomize", opts.Randomize,
		"repeat_count", opts.RepeatCount)
	h.respondStatus(w, r)
}

// Cancel handles POST /api/batch/cancel.
func (h *BatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.scheduler.Cancel(); err != nil {
		writeError(w, r, err)
		return
	}
	h.logger.Info("batch cancelled")
	h.respondStatus(w, r)
}

// Status handles GET /api/batch/status.
func (h *BatchHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.respondStatus(w, r)
}

func (h *BatchHandler) respondStatus(w http.ResponseWriter, r *http.Request) {
	progress := h.scheduler.Progress()

	today, err := h.counter.DailyCount(r.Context())
	if err != nil {
		h.logger.Warn("failed to read daily counter", "error", err)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{
		State:          string(progress.State),
		Total:          progress.Total,
		Processed:      progress.Processed,
		Queued:         progress.Counts.Queued,
		Processing:     progress.Counts.Processing,
		Completed:      progress.Counts.Completed,
		Errored:        progress.Counts.Errored,
		ProcessedToday: today,
	})
}
