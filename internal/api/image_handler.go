package api

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/archive"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
)

// ImageHandler exposes the queue over HTTP: uploads, listing, removal,
// promotion, retry, randomization, and archive download.
type ImageHandler struct {
	store      *queue.Store
	packer     *archive.Packer
	randomizer *prompt.Randomizer
	logger     *slog.Logger
}

// NewImageHandler creates an ImageHandler with its dependencies.
func NewImageHandler(store *queue.Store, packer *archive.Packer, randomizer *prompt.Randomizer, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		store:      store,
		packer:     packer,
		randomizer: randomizer,
		logger:     logger.With("component", "image_handler"),
	}
}

// Enqueue handles POST /api/images. Each payload is validated by
// actually decoding the image bytes before it enters the queue.
func (h *ImageHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req EnqueueRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "images list is required")
		return
	}

	recs := make([]*domain.ImageRecord, 0, len(req.Images))
	for i, img := range req.Images {
		data, mediaType, err := domain.DecodeDataURL(img.DataURL)
		if err != nil {
			writeError(w, r, fmt.Errorf("image %d: %w", i, err))
			return
		}
		if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest,
				fmt.Sprintf("image %d is not a decodable image", i), err)
			return
		}

		rec, err := domain.NewImageRecord(data, mediaType)
		if err != nil {
			writeError(w, r, err)
			return
		}
		rec.Prompt = img.Prompt
		recs = append(recs, rec)
	}

	h.store.Enqueue(recs...)
	h.logger.Info("images enqueued", "count", len(recs))
	shared.RespondWithJSON(w, r, http.StatusCreated, NewImageListResponse(recs))
}

// List handles GET /api/images.
func (h *ImageHandler) List(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, NewImageListResponse(h.store.Snapshot()))
}

// Delete handles DELETE /api/images/{id}.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid image ID")
		return
	}
	if err := h.store.Remove(id); err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: 1})
}

// Clear handles DELETE /api/images?scope=queued|all. The queued scope
// refuses to run while a record is being processed; that refusal shows
// up as a zero count, never as a partial wipe.
func (h *ImageHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var removed int
	switch scope := r.URL.Query().Get("scope"); scope {
	case "", "queued":
		removed = h.store.ClearQueued()
	case "all":
		removed = h.store.ClearAll()
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "scope must be 'queued' or 'all'")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: removed})
}

// RetryFailed handles POST /api/images/retry-failed. This is the manual
// retry: it requeues every errored record regardless of whether the
// automatic pass already retried it.
func (h *ImageHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	requeued := h.store.RequeueErrors(false)
	h.logger.Info("errored records requeued", "count", requeued)
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: requeued})
}

// Promote handles POST /api/images/{id}/promote.
func (h *ImageHandler) Promote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid image ID")
		return
	}
	if err := h.store.Promote(id); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewImageResponse(rec))
}

// PromoteAll handles POST /api/images/promote-all.
func (h *ImageHandler) PromoteAll(w http.ResponseWriter, r *http.Request) {
	promoted := h.store.PromoteAll()
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: promoted})
}

// Randomize handles POST /api/images/randomize. It draws one fragment
// per requested category for each queued record and merges the draw
// into that record's prompt.
func (h *ImageHandler) Randomize(w http.ResponseWriter, r *http.Request) {
	var req RandomizeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "categories list is required")
		return
	}

	categories := make([]prompt.Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		cat, err := prompt.ParseCategory(c)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		categories = append(categories, cat)
	}

	mode := prompt.TagMode
	if req.Mode != "" {
		mode = prompt.Mode(req.Mode)
	}

	touched := 0
	for _, rec := range h.store.QueuedRecords() {
		fragments := h.randomizer.Draw(categories)
		composed := prompt.Compose("", rec.Prompt, fragments, mode)
		if _, err := h.store.SetStatus(rec.ID, domain.StatusQueued, &queue.StatusPatch{Prompt: &composed}); err != nil {
			// Record removed between snapshot and patch; skip it.
			continue
		}
		touched++
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: touched})
}

// RandomizeOne handles POST /api/images/{id}/randomize. It applies a
// single randomization pass to one queued record.
func (h *ImageHandler) RandomizeOne(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid image ID")
		return
	}

	var req RandomizeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "categories list is required")
		return
	}

	categories := make([]prompt.Category, 0, len(req.Categories))
	for _, c := range req.Categories {
		cat, err := prompt.ParseCategory(c)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		categories = append(categories, cat)
	}

	mode := prompt.TagMode
	if req.Mode != "" {
		mode = prompt.Mode(req.Mode)
	}

	rec, err := h.store.Get(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec.Status != domain.StatusQueued {
		shared.RespondWithError(w, r, http.StatusConflict, "record is not queued")
		return
	}

	fragments := h.randomizer.Draw(categories)
	composed := prompt.Compose("", rec.Prompt, fragments, mode)
	updated, err := h.store.SetStatus(rec.ID, domain.StatusQueued, &queue.StatusPatch{Prompt: &composed})
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, NewImageResponse(updated))
}

// Archive handles GET /api/images/archive. It zips every completed
// record's edited image and streams the archive as a download.
func (h *ImageHandler) Archive(w http.ResponseWriter, r *http.Request) {
	completed := h.store.CompletedRecords()
	items := make([]archive.Item, 0, len(completed))
	for i, rec := range completed {
		data, mediaType, err := domain.DecodeDataURL(rec.EditedDataURL)
		if err != nil {
			h.logger.Warn("skipping record with undecodable edited image",
				"record_id", rec.ID, "error", err)
			continue
		}
		items = append(items, archive.Item{
			Name: fmt.Sprintf("edited-%03d-%s%s", i+1, rec.ID.String()[:8], extensionFor(mediaType)),
			Data: data,
		})
	}

	zipped, err := h.packer.Pack(r.Context(), items, func(percent int) {
		h.logger.Debug("archive progress", "percent", percent)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="edited-images.zip"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(zipped)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(zipped); err != nil {
		h.logger.Error("failed to write archive response", "error", err)
	}
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
