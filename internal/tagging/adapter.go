// Package tagging wraps the external tagging service with tag
// normalization and the fan-out used for bulk and pre-batch tagging.
package tagging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
)

// DefaultSystemPrompt instructs the model to answer with tags only, so
// normalization has a predictable shape to work with.
const DefaultSystemPrompt = "Describe this image as a comma-separated list of short, lowercase " +
	"descriptive tags. Respond with the tags only, no other text."

// Adapter normalizes the tagging service's output and classifies its
// failures.
type Adapter struct {
	svc    editing.TagService
	logger *slog.Logger
}

// NewAdapter creates a tagging adapter around the given service.
func NewAdapter(svc editing.TagService, logger *slog.Logger) *Adapter {
	return &Adapter{
		svc:    svc,
		logger: logger.With("component", "tagging_adapter"),
	}
}

// Tag describes the image and returns a normalized comma-separated tag
// string. When systemPrompt is empty the default system prompt is used.
// Errors keep their classification (rate limit vs generic) from the
// underlying service.
func (a *Adapter) Tag(ctx context.Context, data []byte, mediaType, systemPrompt string) (string, error) {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}

	raw, err := a.svc.Tag(ctx, data, mediaType, systemPrompt)
	if err != nil {
		return "", err
	}

	return prompt.NormalizeTags(raw), nil
}

// TagRecords tags the given records in parallel and reconciles the
// outcomes into the store once every outstanding call has settled.
// Records that already carry a non-empty prompt are skipped when
// skipPrompted is true (an existing prompt wins over auto-tagging). A
// failure attaches an error note to its record without changing the
// record's status, so the record still proceeds with its prior prompt.
// Returns the number of records that received tags.
func (a *Adapter) TagRecords(ctx context.Context, store *queue.Store, recs []*domain.ImageRecord, skipPrompted bool) int {
	type outcome struct {
		rec  *domain.ImageRecord
		tags string
		err  error
	}

	targets := make([]*domain.ImageRecord, 0, len(recs))
	for _, rec := range recs {
		if skipPrompted && rec.Prompt != "" {
			continue
		}
		targets = append(targets, rec)
	}
	if len(targets) == 0 {
		return 0
	}

	a.logger.Info("tagging records", "count", len(targets))

	outcomes := make([]outcome, len(targets))
	var wg sync.WaitGroup
	for i, rec := range targets {
		wg.Add(1)
		go func(i int, rec *domain.ImageRecord) {
			defer wg.Done()
			tags, err := a.Tag(ctx, rec.SourceData, rec.MediaType, "")
			outcomes[i] = outcome{rec: rec, tags: tags, err: err}
		}(i, rec)
	}
	wg.Wait()

	tagged := 0
	for _, out := range outcomes {
		if out.err != nil {
			a.logger.Warn("tagging failed for record",
				"record_id", out.rec.ID,
				"error", out.err)
			msg := out.err.Error()
			if _, err := store.SetStatus(out.rec.ID, out.rec.Status, &queue.StatusPatch{Error: &msg}); err != nil {
				a.logger.Error("failed to attach tagging error", "record_id", out.rec.ID, "error", err)
			}
			continue
		}

		merged := prompt.MergeTags(out.rec.Prompt, out.tags)
		if _, err := store.SetStatus(out.rec.ID, out.rec.Status, &queue.StatusPatch{Prompt: &merged}); err != nil {
			a.logger.Error("failed to store tags", "record_id", out.rec.ID, "error", err)
			continue
		}
		tagged++
	}
	return tagged
}
