package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/session"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

// EditHandler exposes interactive single-image edits and bulk tagging.
type EditHandler struct {
	sessions *session.Manager
	tagger   *tagging.Adapter
	store    *queue.Store
	logger   *slog.Logger
}

// NewEditHandler creates an EditHandler.
func NewEditHandler(sessions *session.Manager, tagger *tagging.Adapter, store *queue.Store, logger *slog.Logger) *EditHandler {
	return &EditHandler{
		sessions: sessions,
		tagger:   tagger,
		store:    store,
		logger:   logger.With("component", "edit_handler"),
	}
}

// Edit handles POST /api/images/{id}/edit. The call is synchronous:
// the response carries the record after the edit resolved, whether it
// succeeded or moved the record to an error state.
func (h *EditHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid image ID")
		return
	}

	var req EditImageRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.sessions.Edit(r.Context(), session.Request{
		RecordID:     id,
		Prompt:       req.Prompt,
		AutoTag:      req.AutoTag,
		HistoryIndex: req.HistoryIndex,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewImageResponse(rec))
}

// Tag handles POST /api/images/tag. With no IDs it tags every queued
// record; Overwrite re-tags records that already carry a prompt.
func (h *EditHandler) Tag(w http.ResponseWriter, r *http.Request) {
	var req TagImagesRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	var recs []*domain.ImageRecord
	if len(req.IDs) == 0 {
		recs = h.store.QueuedRecords()
	} else {
		for _, raw := range req.IDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "invalid image ID: "+raw)
				return
			}
			rec, err := h.store.Get(id)
			if err != nil {
				writeError(w, r, err)
				return
			}
			recs = append(recs, rec)
		}
	}

	tagged := h.tagger.TagRecords(r.Context(), h.store, recs, !req.Overwrite)
	h.logger.Info("bulk tagging finished", "requested", len(recs), "tagged", tagged)
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: tagged})
}
