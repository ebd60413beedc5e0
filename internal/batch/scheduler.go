// Package batch implements the batch scheduler: the control loop that
// selects the next eligible record, enforces one-in-flight processing,
// applies throttle delay and rate-limit cooldown, invokes the edit
// service, and resolves each outcome back into the queue store.
//
// The loop is an explicit tick: it re-evaluates whenever the store
// changes (via the events emitter) and whenever a timer fires, guarded
// by the batch state and the single-flight invariant. Every dispatch is
// tagged with the batch generation; a resolution arriving after the
// generation has moved on (cancel, new batch) is discarded, so a stale
// network call can never resurrect a dead batch.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/editing"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/events"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prefs"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/prompt"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/queue"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/tagging"
)

// State represents the batch lifecycle, distinct from per-record
// status.
type State string

// Batch states
const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StateCoolingDown State = "cooling_down"
)

// Config holds the scheduler's timing configuration.
type Config struct {
	// Throttle is the delay before each dequeue after the first record
	// of a batch has been processed.
	Throttle time.Duration

	// Cooldown is the fixed suspension entered when the edit service
	// reports a rate limit.
	Cooldown time.Duration
}

// StartOptions configures one batch run.
type StartOptions struct {
	// GlobalPrompt is prepended to every record's prompt.
	GlobalPrompt string

	// Mode selects tag-set or natural-language composition.
	Mode prompt.Mode

	// AutoTag tags every queued record that lacks its own prompt before
	// processing starts.
	AutoTag bool

	// Randomize draws one fragment per category into each composed
	// prompt.
	Randomize  bool
	Categories []prompt.Category

	// RepeatCount expands every queued record into this many variants.
	RepeatCount int

	// RerandomizePerRepeat gives each repeat variant an independently
	// drawn fragment set instead of sharing one composed prompt.
	RerandomizePerRepeat bool
}

// Progress reports the batch state and derived counts.
type Progress struct {
	State     State        `json:"state"`
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Counts    queue.Counts `json:"counts"`
}

// Scheduler drives batches over the queue store. At most one record is
// PROCESSING at any instant; the invariant is self-enforcing because
// the tick only dequeues when nothing is in flight.
type Scheduler struct {
	store  *queue.Store
	edit   editing.EditService
	tagger *tagging.Adapter
	prefs  *prefs.Service
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	state         State
	preparing     bool
	generation    uint64
	total         int
	processedAny  bool
	inFlight      bool
	closed        bool
	batchCtx      context.Context
	batchCancel   context.CancelFunc
	cooldownTimer *time.Timer
	randomizer    *prompt.Randomizer

	kick chan struct{}
}

// NewScheduler creates a scheduler and starts its tick loop. Callers
// must register the scheduler with the store's emitter so ticks follow
// store mutations, and call Close on shutdown.
func NewScheduler(
	st *queue.Store,
	edit editing.EditService,
	tagger *tagging.Adapter,
	prefSvc *prefs.Service,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	s := &Scheduler{
		store:      st,
		edit:       edit,
		tagger:     tagger,
		prefs:      prefSvc,
		cfg:        cfg,
		logger:     logger.With("component", "batch_scheduler"),
		state:      StateIdle,
		randomizer: prompt.NewRandomizer(),
		kick:       make(chan struct{}, 1),
	}

	go s.loop()
	return s
}

// SetRandomizer replaces the fragment randomizer, so tests can seed
// draws deterministically.
func (s *Scheduler) SetRandomizer(r *prompt.Randomizer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.randomizer = r
}

// State returns the current batch state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the batch state, the batch denominator, and the
// derived per-status counts. Processed is total minus the records still
// queued or in flight, floored at zero.
func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.store.Counts()
	p := Progress{State: s.state, Counts: counts}
	if s.state != StateIdle {
		p.Total = s.total
		p.Processed = s.total - counts.Queued - counts.Processing
		if p.Processed < 0 {
			p.Processed = 0
		}
	}
	return p
}

// HandleStoreEvent implements events.Handler. Every store mutation
// re-evaluates the loop; records enqueued mid-batch additionally grow
// the batch denominator so progress reporting stays accurate.
func (s *Scheduler) HandleStoreEvent(_ context.Context, event events.StoreEvent) error {
	if event.Op == events.OpEnqueue {
		s.mu.Lock()
		if s.state != StateIdle {
			s.total += event.Count
		}
		s.mu.Unlock()
	}

	s.Kick()
	return nil
}

// Start validates, prepares, and begins a batch over all currently
// queued records: optional parallel auto-tagging, prompt resolution
// with repeat expansion, queue replacement, and prompt-history
// recording. It returns once the batch is running; processing continues
// in the background.
func (s *Scheduler) Start(ctx context.Context, opts StartOptions) error {
	if opts.RepeatCount < 1 {
		opts.RepeatCount = 1
	}
	if opts.Mode == "" {
		opts.Mode = prompt.TagMode
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}

	queued := s.store.QueuedRecords()
	if err := validateStart(opts, queued); err != nil {
		s.mu.Unlock()
		return err
	}
	if len(queued) == 0 {
		s.mu.Unlock()
		return ErrNothingToProcess
	}

	s.generation++
	gen := s.generation
	batchCtx, cancel := context.WithCancel(context.Background())
	s.batchCtx = batchCtx
	s.batchCancel = cancel
	// Ticks stay gated until the expanded queue is committed below, so a
	// kick left over from an earlier mutation (or fired by the tagging
	// reconcile) cannot dispatch a raw, uncomposed record.
	s.state = StateRunning
	s.preparing = true
	s.inFlight = false
	s.processedAny = false
	s.total = 0
	randomizer := s.randomizer
	s.mu.Unlock()

	if opts.AutoTag {
		s.tagger.TagRecords(batchCtx, s.store, queued, true)
		queued = s.refreshSnapshot(queued)
	}

	expanded := expand(queued, opts, randomizer)
	replaced := make([]uuid.UUID, len(queued))
	for i, rec := range queued {
		replaced[i] = rec.ID
	}
	s.store.ReplaceQueued(replaced, expanded)

	s.mu.Lock()
	if s.generation == gen {
		// Enqueues that raced the preparation already grew the total via
		// HandleStoreEvent; the expanded set adds on top.
		s.total += len(expanded)
		s.preparing = false
	}
	s.mu.Unlock()

	if opts.GlobalPrompt != "" {
		if err := s.prefs.RecordPrompt(ctx, opts.GlobalPrompt); err != nil {
			s.logger.Warn("failed to record prompt history", "error", err)
		}
	}

	s.logger.Info("batch started",
		"total", len(expanded),
		"repeat_count", opts.RepeatCount,
		"auto_tag", opts.AutoTag,
		"randomize", opts.Randomize)

	s.Kick()
	return nil
}

// refreshSnapshot re-reads the snapshot records by ID so prompt changes
// made by the tagging pass are visible. Records removed or dequeued in
// the meantime drop out.
func (s *Scheduler) refreshSnapshot(snap []*domain.ImageRecord) []*domain.ImageRecord {
	out := make([]*domain.ImageRecord, 0, len(snap))
	for _, rec := range snap {
		cur, err := s.store.Get(rec.ID)
		if err != nil || cur.Status != domain.StatusQueued {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// Cancel stops a running or cooling-down batch: the loop dequeues no
// further work, timers are cleared, and any PROCESSING record reverts
// to QUEUED. An in-flight call is abandoned; its late resolution is
// discarded by the generation check.
func (s *Scheduler) Cancel() error {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return ErrNotRunning
	}

	s.generation++
	s.state = StateIdle
	s.preparing = false
	s.inFlight = false
	s.total = 0
	if s.cooldownTimer != nil {
		s.cooldownTimer.Stop()
		s.cooldownTimer = nil
	}
	cancel := s.batchCancel
	s.batchCancel = nil
	s.batchCtx = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	reverted := s.store.RevertProcessing()

	s.logger.Info("batch cancelled", "reverted", reverted)
	return nil
}

// Kick schedules a tick. It never blocks: a tick already pending
// covers this one.
func (s *Scheduler) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Close cancels any active batch and stops the tick loop.
func (s *Scheduler) Close() {
	_ = s.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.kick)
	}
}

func (s *Scheduler) loop() {
	for range s.kick {
		s.tick()
	}
}

// tick is the single decision point of the scheduler. It dequeues at
// most one record, and only when the batch is RUNNING, fully prepared,
// not cooling down, and nothing is in flight.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.state != StateRunning || s.preparing || s.inFlight {
		s.mu.Unlock()
		return
	}

	gen := s.generation
	ctx := s.batchCtx

	if next := s.store.NextQueued(); next != nil {
		var delay time.Duration
		if s.processedAny {
			delay = s.cfg.Throttle
		}
		s.inFlight = true
		s.mu.Unlock()

		go s.dispatch(ctx, gen, next, delay)
		return
	}
	s.mu.Unlock()

	// Queue drained. Run one automatic retry pass over failures that
	// have not been retried yet; the Retried flag bounds this to a
	// single pass per failure.
	if n := s.store.RequeueErrors(true); n > 0 {
		s.logger.Info("automatic retry pass", "count", n)
		return
	}

	s.mu.Lock()
	var cancel context.CancelFunc
	if s.state == StateRunning && s.generation == gen {
		s.state = StateIdle
		s.total = 0
		cancel = s.batchCancel
		s.batchCancel = nil
		s.batchCtx = nil
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		s.logger.Info("batch finished")
	}
}

// dispatch processes one record: throttle delay, the PROCESSING
// transition, the edit call, and resolution.
func (s *Scheduler) dispatch(ctx context.Context, gen uint64, rec *domain.ImageRecord, delay time.Duration) {
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if _, err := s.store.SetStatus(rec.ID, domain.StatusProcessing, nil); err != nil {
		// The record was deleted while waiting; release the slot.
		s.logger.Debug("skipping vanished record", "record_id", rec.ID, "error", err)
		s.mu.Lock()
		if gen == s.generation {
			s.inFlight = false
		}
		s.mu.Unlock()
		s.Kick()
		return
	}

	s.logger.Info("processing record", "record_id", rec.ID, "prompt_length", len(rec.Prompt))
	edited, err := s.edit.Edit(ctx, rec.SourceData, rec.MediaType, rec.Prompt)
	s.resolve(ctx, gen, rec, edited, err)
}

// resolve applies one dispatch outcome to the store. Stale resolutions
// (generation mismatch after cancel or restart) are discarded without
// touching the store.
func (s *Scheduler) resolve(ctx context.Context, gen uint64, rec *domain.ImageRecord, edited editing.EditedImage, err error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.logger.Debug("discarding stale resolution", "record_id", rec.ID)
		return
	}

	s.inFlight = false
	s.processedAny = true

	rateLimited := err != nil && editing.IsRateLimit(err)
	if rateLimited {
		s.state = StateCoolingDown
		s.cooldownTimer = time.AfterFunc(s.cfg.Cooldown, func() {
			s.exitCooldown(gen)
		})
	}
	s.mu.Unlock()

	switch {
	case err == nil:
		dataURL := domain.EncodeDataURL(edited.Data, edited.MediaType)
		noError := ""
		if _, serr := s.store.SetStatus(rec.ID, domain.StatusCompleted, &queue.StatusPatch{
			EditedDataURL: &dataURL,
			Error:         &noError,
		}); serr != nil {
			s.logger.Error("failed to mark record completed", "record_id", rec.ID, "error", serr)
		}
		if _, cerr := s.prefs.IncrementDaily(ctx); cerr != nil {
			s.logger.Warn("failed to increment daily counter", "error", cerr)
		}
		s.logger.Info("record completed", "record_id", rec.ID)

	case rateLimited:
		if _, serr := s.store.SetStatus(rec.ID, domain.StatusQueued, nil); serr != nil {
			s.logger.Error("failed to requeue rate-limited record", "record_id", rec.ID, "error", serr)
		}
		s.logger.Warn("rate limited, cooling down",
			"record_id", rec.ID,
			"cooldown", s.cfg.Cooldown)

	default:
		msg := err.Error()
		if _, serr := s.store.SetStatus(rec.ID, domain.StatusError, &queue.StatusPatch{Error: &msg}); serr != nil {
			s.logger.Error("failed to mark record failed", "record_id", rec.ID, "error", serr)
		}
		s.logger.Warn("record failed", "record_id", rec.ID, "error", err)
	}

	s.Kick()
}

// exitCooldown resumes the batch after the cooldown interval, unless
// the batch was cancelled or replaced in the meantime.
func (s *Scheduler) exitCooldown(gen uint64) {
	s.mu.Lock()
	if s.generation == gen && s.state == StateCoolingDown {
		s.state = StateRunning
		s.cooldownTimer = nil
	}
	s.mu.Unlock()

	s.Kick()
}

// validateStart enforces the batch start precondition: at least one
// prompt source must exist.
func validateStart(opts StartOptions, queued []*domain.ImageRecord) error {
	if opts.GlobalPrompt != "" {
		return nil
	}
	if opts.AutoTag {
		return nil
	}
	if opts.Randomize && len(opts.Categories) > 0 {
		return nil
	}
	for _, rec := range queued {
		if rec.Prompt != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: provide a global prompt, per-image prompts, "+
		"randomization categories, or enable auto-tagging", ErrValidation)
}

// expand resolves final prompts and applies the repeat count: either R
// independently randomized variants per source record, or R clones
// sharing one composed prompt. The first variant keeps the source
// record's identity; clones get fresh IDs.
func expand(queued []*domain.ImageRecord, opts StartOptions, randomizer *prompt.Randomizer) []*domain.ImageRecord {
	out := make([]*domain.ImageRecord, 0, len(queued)*opts.RepeatCount)

	for _, rec := range queued {
		imagePrompt := rec.Prompt

		if opts.Randomize && opts.RerandomizePerRepeat && len(opts.Categories) > 0 {
			series := randomizer.DrawSeries(opts.Categories, opts.RepeatCount)
			for i := 0; i < opts.RepeatCount; i++ {
				variant := rec
				if i > 0 {
					variant = rec.Clone()
				}
				variant.Prompt = prompt.Compose(opts.GlobalPrompt, imagePrompt, series[i], opts.Mode)
				out = append(out, variant)
			}
			continue
		}

		var fragments []string
		if opts.Randomize && len(opts.Categories) > 0 {
			fragments = randomizer.Draw(opts.Categories)
		}
		composed := prompt.Compose(opts.GlobalPrompt, imagePrompt, fragments, opts.Mode)
		for i := 0; i < opts.RepeatCount; i++ {
			variant := rec
			if i > 0 {
				variant = rec.Clone()
			}
			variant.Prompt = composed
			out = append(out, variant)
		}
	}

	return out
}
