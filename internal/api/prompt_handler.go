package api

import (
	"log/slog"
	"net/http"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/api/shared"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prefs"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
)

// PromptHandler exposes prompt enhancement, history, pins, and the
// suggestion catalog.
type PromptHandler struct {
	enhancer editing.EnhanceService
	prefs    *prefs.Service
	logger   *slog.Logger
}

// NewPromptHandler creates a PromptHandler.
func NewPromptHandler(enhancer editing.EnhanceService, prefsSvc *prefs.Service, logger *slog.Logger) *PromptHandler {
	return &PromptHandler{
		enhancer: enhancer,
		prefs:    prefsSvc,
		logger:   logger.With("component", "prompt_handler"),
	}
}

// Enhance handles POST /api/prompts/enhance.
func (h *PromptHandler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "prompt is required")
		return
	}

	improved, err := h.enhancer.Enhance(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, EnhanceResponse{Prompt: improved})
}

// History handles GET /api/prompts/history.
func (h *PromptHandler) History(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.prefs.History(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PromptListResponse{Prompts: prompts})
}

// AddToHistory handles POST /api/prompts/history. Prompts are normally
// recorded when a batch starts; this lets the client save one directly.
func (h *PromptHandler) AddToHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrompt(w, r)
	if !ok {
		return
	}
	if err := h.prefs.RecordPrompt(r.Context(), req.Prompt); err != nil {
		writeError(w, r, err)
		return
	}
	h.History(w, r)
}

// DeleteFromHistory handles DELETE /api/prompts/history.
func (h *PromptHandler) DeleteFromHistory(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrompt(w, r)
	if !ok {
		return
	}
	if err := h.prefs.RemovePrompt(r.Context(), req.Prompt); err != nil {
		writeError(w, r, err)
		return
	}
	h.History(w, r)
}

// Pins handles GET /api/prompts/pins.
func (h *PromptHandler) Pins(w http.ResponseWriter, r *http.Request) {
	pins, err := h.prefs.Pins(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PromptListResponse{Prompts: pins})
}

// Pin handles POST /api/prompts/pins.
func (h *PromptHandler) Pin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrompt(w, r)
	if !ok {
		return
	}
	if err := h.prefs.Pin(r.Context(), req.Prompt); err != nil {
		writeError(w, r, err)
		return
	}
	h.Pins(w, r)
}

// Unpin handles DELETE /api/prompts/pins.
func (h *PromptHandler) Unpin(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePrompt(w, r)
	if !ok {
		return
	}
	if err := h.prefs.Unpin(r.Context(), req.Prompt); err != nil {
		writeError(w, r, err)
		return
	}
	h.Pins(w, r)
}

// Suggestions handles GET /api/prompts/suggestions. It returns the
// full fragment catalog keyed by category.
func (h *PromptHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	catalog := make(map[string][]string)
	for _, cat := range prompt.Categories() {
		catalog[string(cat)] = prompt.Fragments(cat)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, catalog)
}

func (h *PromptHandler) decodePrompt(w http.ResponseWriter, r *http.Request) (PromptRequest, bool) {
	var req PromptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "prompt is required")
		return req, false
	}
	return req, true
}
