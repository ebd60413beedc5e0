// Package session implements the out-of-band interactive edit flow:
// one record, one prompt, processed on demand and independent of the
// batch scheduler. Each successful edit appends to the record's history.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

// Common session errors.
var (
	// ErrRecordBusy is returned when the record is PROCESSING under the
	// batch scheduler; interactive edits of in-flight records are
	// disallowed so the two subsystems never write to the same record
	// concurrently.
	ErrRecordBusy = errors.New("record is processing in the batch")

	// ErrSessionActive is returned when an interactive edit for the
	// record is already running.
	ErrSessionActive = errors.New("an edit session is already active for this record")

	// ErrNoSuchHistoryEntry is returned when the requested history
	// index does not exist.
	ErrNoSuchHistoryEntry = errors.New("no such history entry")

	// ErrEmptyPrompt is returned when the resolved prompt is empty.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")
)

// Request describes one interactive edit.
type Request struct {
	RecordID uuid.UUID

	// Prompt is the user's prompt for this edit.
	Prompt string

	// AutoTag merges generated tags into the prompt before editing.
	AutoTag bool

	// HistoryIndex selects a previously edited variant from the
	// record's history as the source image; nil uses the record's
	// current original.
	HistoryIndex *int
}

// Manager runs interactive edit sessions. Claiming a record goes
// through the store's hold mechanism, so the batch scheduler and a
// session can never process the same record at once.
type Manager struct {
	store  *queue.Store
	edit   editing.EditService
	tagger *tagging.Adapter
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(st *queue.Store, edit editing.EditService, tagger *tagging.Adapter, logger *slog.Logger) *Manager {
	return &Manager{
		store:  st,
		edit:   edit,
		tagger: tagger,
		logger: logger.With("component", "edit_session"),
	}
}

// Edit processes one record/prompt pair. On success it appends a
// history entry and marks the record COMPLETED; on failure it marks the
// record ERROR and returns the error to the caller without touching the
// batch scheduler's state.
func (m *Manager) Edit(ctx context.Context, req Request) (*domain.ImageRecord, error) {
	rec, err := m.claim(req.RecordID)
	if err != nil {
		return nil, err
	}
	defer m.release(req.RecordID)

	resolved := req.Prompt
	if req.AutoTag {
		tags, terr := m.tagger.Tag(ctx, rec.SourceData, rec.MediaType, "")
		if terr != nil {
			// Tagging is best-effort here; the edit proceeds with the
			// user's prompt.
			m.logger.Warn("session auto-tag failed", "record_id", rec.ID, "error", terr)
		} else {
			resolved = prompt.MergeTags(resolved, tags)
		}
	}
	if resolved == "" {
		return nil, ErrEmptyPrompt
	}

	source, mediaType, err := m.sourceImage(rec, req.HistoryIndex)
	if err != nil {
		return nil, err
	}

	m.logger.Info("interactive edit started", "record_id", rec.ID)
	edited, err := m.edit.Edit(ctx, source, mediaType, resolved)
	if err != nil {
		msg := err.Error()
		if _, serr := m.store.SetStatus(rec.ID, domain.StatusError, &queue.StatusPatch{Error: &msg}); serr != nil {
			m.logger.Error("failed to mark record failed", "record_id", rec.ID, "error", serr)
		}
		return nil, err
	}

	dataURL := domain.EncodeDataURL(edited.Data, edited.MediaType)
	entry := domain.HistoryEntry{
		DataURL:   dataURL,
		Prompt:    resolved,
		Timestamp: time.Now().UTC(),
	}
	noError := ""
	updated, err := m.store.SetStatus(rec.ID, domain.StatusCompleted, &queue.StatusPatch{
		EditedDataURL: &dataURL,
		Prompt:        &resolved,
		Error:         &noError,
		AppendHistory: &entry,
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("interactive edit completed",
		"record_id", rec.ID,
		"history_len", len(updated.History))
	return updated, nil
}

// claim atomically holds the record in the store, refusing records
// that are PROCESSING under the batch or already in a session. The hold
// also blocks the batch from marking the record PROCESSING while the
// session runs.
func (m *Manager) claim(id uuid.UUID) (*domain.ImageRecord, error) {
	rec, err := m.store.Hold(id)
	switch {
	case err == nil:
		return rec, nil
	case errors.Is(err, queue.ErrAlreadyProcessing):
		return nil, ErrRecordBusy
	case errors.Is(err, queue.ErrRecordHeld):
		return nil, ErrSessionActive
	default:
		return nil, err
	}
}

func (m *Manager) release(id uuid.UUID) {
	m.store.Release(id)
}

// sourceImage picks the edit input: the record's current original, or a
// previously edited variant from history.
func (m *Manager) sourceImage(rec *domain.ImageRecord, historyIndex *int) ([]byte, string, error) {
	if historyIndex == nil {
		return rec.SourceData, rec.MediaType, nil
	}

	idx := *historyIndex
	if idx < 0 || idx >= len(rec.History) {
		return nil, "", ErrNoSuchHistoryEntry
	}
	return domain.DecodeDataURL(rec.History[idx].DataURL)
}
