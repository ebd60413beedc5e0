// Package queue implements the authoritative in-memory collection of
// image records and their lifecycle status. The store exclusively owns
// record mutation: every other component issues intents (mark as
// processing, requeue errors, promote) which the store applies
// atomically and announces through the events emitter.
package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/domain"
	"github.com/magicFeirl/NanoBanana-Image-Batch-Editor/internal/events"
)

// StatusPatch carries the auxiliary field changes applied together with
// a status transition. Nil pointers leave the field untouched; a
// pointer to the zero value clears it.
type StatusPatch struct {
	Prompt        *string
	Error         *string
	EditedDataURL *string
	Retried       *bool
	AppendHistory *domain.HistoryEntry
}

// Counts holds the per-status record counts, recomputed on every read.
type Counts struct {
	Queued     int `json:"queued"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Errored    int `json:"errored"`
	Total      int `json:"total"`
}

// Store is the queue state store. Order is insertion order and is
// user-visible.
type Store struct {
	mu      sync.Mutex
	records []*domain.ImageRecord
	held    map[uuid.UUID]bool
	emitter events.Emitter
	logger  *slog.Logger
}

// NewStore creates an empty store. The emitter may be nil, in which
// case mutations are not announced.
func NewStore(emitter events.Emitter, logger *slog.Logger) *Store {
	return &Store{
		records: make([]*domain.ImageRecord, 0),
		held:    make(map[uuid.UUID]bool),
		emitter: emitter,
		logger:  logger.With("component", "queue_store"),
	}
}

// Enqueue appends records to the store in the given order.
func (s *Store) Enqueue(recs ...*domain.ImageRecord) {
	if len(recs) == 0 {
		return
	}

	s.mu.Lock()
	s.records = append(s.records, recs...)
	s.mu.Unlock()

	s.logger.Debug("records enqueued", "count", len(recs))
	s.emit(events.OpEnqueue, uuid.Nil, len(recs))
}

// Snapshot returns copies of all records in order.
func (s *Store) Snapshot() []*domain.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ImageRecord, len(s.records))
	for i, rec := range s.records {
		out[i] = copyRecord(rec)
	}
	return out
}

// Get returns a copy of the record with the given ID.
func (s *Store) Get(id uuid.UUID) (*domain.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(id)
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return copyRecord(rec), nil
}

// NextQueued returns a copy of the first QUEUED record in sequence
// order, or nil when none exists. Records held by an edit session are
// not eligible.
func (s *Store) NextQueued() *domain.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Status == domain.StatusQueued && !s.held[rec.ID] {
			return copyRecord(rec)
		}
	}
	return nil
}

// QueuedRecords returns copies of all QUEUED records in order.
func (s *Store) QueuedRecords() []*domain.ImageRecord {
	return s.filterByStatus(domain.StatusQueued)
}

// CompletedRecords returns copies of all COMPLETED records in order.
func (s *Store) CompletedRecords() []*domain.ImageRecord {
	return s.filterByStatus(domain.StatusCompleted)
}

// SetStatus transitions a record's status and applies the auxiliary
// patch in one atomic step. Transitions to PROCESSING are rejected with
// ErrAlreadyProcessing while any other record is PROCESSING.
func (s *Store) SetStatus(id uuid.UUID, status domain.Status, patch *StatusPatch) (*domain.ImageRecord, error) {
	s.mu.Lock()

	rec := s.find(id)
	if rec == nil {
		s.mu.Unlock()
		return nil, ErrRecordNotFound
	}

	if status == domain.StatusProcessing {
		if s.held[id] {
			s.mu.Unlock()
			return nil, ErrRecordHeld
		}
		for _, other := range s.records {
			if other.ID != id && other.Status == domain.StatusProcessing {
				s.mu.Unlock()
				return nil, ErrAlreadyProcessing
			}
		}
	}

	rec.Status = status
	if patch != nil {
		if patch.Prompt != nil {
			rec.Prompt = *patch.Prompt
		}
		if patch.Error != nil {
			rec.Error = *patch.Error
		}
		if patch.EditedDataURL != nil {
			rec.EditedDataURL = *patch.EditedDataURL
		}
		if patch.Retried != nil {
			rec.Retried = *patch.Retried
		}
		if patch.AppendHistory != nil {
			rec.History = append(rec.History, *patch.AppendHistory)
		}
	}

	out := copyRecord(rec)
	s.mu.Unlock()

	s.emit(events.OpStatusChange, id, 1)
	return out, nil
}

// RequeueErrors transitions ERROR records back to QUEUED, clearing
// their error text. When auto is true only records that have not been
// auto-retried are touched, and the Retried flag is set so the
// automatic pass never repeats; a manual requeue clears the flag
// instead. Returns the number of records requeued.
func (s *Store) RequeueErrors(auto bool) int {
	s.mu.Lock()
	count := 0
	for _, rec := range s.records {
		if rec.Status != domain.StatusError {
			continue
		}
		if auto && rec.Retried {
			continue
		}
		rec.Status = domain.StatusQueued
		rec.Error = ""
		rec.Retried = auto
		count++
	}
	s.mu.Unlock()

	if count > 0 {
		s.logger.Debug("errored records requeued", "count", count, "auto", auto)
		s.emit(events.OpRequeue, uuid.Nil, count)
	}
	return count
}

// Promote replaces a record's original with its edited result and
// resets it to a fresh QUEUED lifecycle: prompt, error, retried flag,
// and history are all cleared.
func (s *Store) Promote(id uuid.UUID) error {
	s.mu.Lock()

	rec := s.find(id)
	if rec == nil {
		s.mu.Unlock()
		return ErrRecordNotFound
	}

	if err := promote(rec); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.emit(events.OpPromote, id, 1)
	return nil
}

// PromoteAll promotes every COMPLETED record that has an edited result.
// Returns the number of records promoted.
func (s *Store) PromoteAll() int {
	s.mu.Lock()
	count := 0
	for _, rec := range s.records {
		if promote(rec) == nil {
			count++
		}
	}
	s.mu.Unlock()

	if count > 0 {
		s.emit(events.OpPromote, uuid.Nil, count)
	}
	return count
}

// Hold claims a record for an interactive edit session: the PROCESSING
// check and the claim happen in one atomic step, so the batch cannot
// slip in between them. Held records are skipped by NextQueued and
// refuse the PROCESSING transition until released. Returns a copy of
// the held record.
func (s *Store) Hold(id uuid.UUID) (*domain.ImageRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.find(id)
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	if rec.Status == domain.StatusProcessing {
		return nil, ErrAlreadyProcessing
	}
	if s.held[id] {
		return nil, ErrRecordHeld
	}
	s.held[id] = true
	return copyRecord(rec), nil
}

// Release clears a session hold. Releasing an unheld ID is a no-op.
func (s *Store) Release(id uuid.UUID) {
	s.mu.Lock()
	delete(s.held, id)
	s.mu.Unlock()
}

// Remove deletes the record with the given ID.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	idx := -1
	for i, rec := range s.records {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRecordNotFound
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	delete(s.held, id)
	s.mu.Unlock()

	s.emit(events.OpRemove, id, 1)
	return nil
}

// ClearAll removes every record. Returns the number removed.
func (s *Store) ClearAll() int {
	s.mu.Lock()
	count := len(s.records)
	s.records = s.records[:0]
	s.mu.Unlock()

	if count > 0 {
		s.emit(events.OpClear, uuid.Nil, count)
	}
	return count
}

// ClearQueued removes every QUEUED record. It is a no-op while a record
// is PROCESSING, so an active batch is never mutated under the
// scheduler. Returns the number removed.
func (s *Store) ClearQueued() int {
	s.mu.Lock()
	for _, rec := range s.records {
		if rec.Status == domain.StatusProcessing {
			s.mu.Unlock()
			s.logger.Debug("clear queued skipped, batch is processing")
			return 0
		}
	}

	kept := s.records[:0]
	count := 0
	for _, rec := range s.records {
		if rec.Status == domain.StatusQueued {
			count++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	s.mu.Unlock()

	if count > 0 {
		s.emit(events.OpClear, uuid.Nil, count)
	}
	return count
}

// ReplaceQueued removes the QUEUED records named by replaced and
// appends the given replacement set. The batch scheduler uses this to
// swap its start-time snapshot for the repeat-expanded, prompt-resolved
// input set; records enqueued after the snapshot was taken stay put.
func (s *Store) ReplaceQueued(replaced []uuid.UUID, recs []*domain.ImageRecord) {
	drop := make(map[uuid.UUID]bool, len(replaced))
	for _, id := range replaced {
		drop[id] = true
	}

	s.mu.Lock()
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Status != domain.StatusQueued || !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	s.records = append(kept, recs...)
	s.mu.Unlock()

	s.emit(events.OpReplace, uuid.Nil, len(recs))
}

// RevertProcessing transitions any PROCESSING record back to QUEUED.
// Cancellation uses this to reset visible status; the abandoned
// in-flight call is discarded by the scheduler's generation check.
func (s *Store) RevertProcessing() int {
	s.mu.Lock()
	count := 0
	for _, rec := range s.records {
		if rec.Status == domain.StatusProcessing {
			rec.Status = domain.StatusQueued
			count++
		}
	}
	s.mu.Unlock()

	if count > 0 {
		s.emit(events.OpStatusChange, uuid.Nil, count)
	}
	return count
}

// Counts returns the derived per-status counts.
func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c Counts
	c.Total = len(s.records)
	for _, rec := range s.records {
		switch rec.Status {
		case domain.StatusQueued:
			c.Queued++
		case domain.StatusProcessing:
			c.Processing++
		case domain.StatusCompleted:
			c.Completed++
		case domain.StatusError:
			c.Errored++
		}
	}
	return c
}

func (s *Store) filterByStatus(status domain.Status) []*domain.ImageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.ImageRecord
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, copyRecord(rec))
		}
	}
	return out
}

// find returns the stored record with the given ID. Callers must hold
// the mutex.
func (s *Store) find(id uuid.UUID) *domain.ImageRecord {
	for _, rec := range s.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

// promote applies the promotion transition in place. Callers must hold
// the mutex.
func promote(rec *domain.ImageRecord) error {
	if rec.Status != domain.StatusCompleted || rec.EditedDataURL == "" {
		return ErrNotPromotable
	}

	data, mediaType, err := domain.DecodeDataURL(rec.EditedDataURL)
	if err != nil {
		return err
	}

	rec.SourceData = data
	rec.MediaType = mediaType
	rec.OriginalDataURL = rec.EditedDataURL
	rec.EditedDataURL = ""
	rec.Prompt = ""
	rec.Error = ""
	rec.Retried = false
	rec.History = nil
	rec.Status = domain.StatusQueued
	return nil
}

// copyRecord returns a shallow copy with its own history slice. The
// source payload is shared; it is never mutated in place.
func copyRecord(rec *domain.ImageRecord) *domain.ImageRecord {
	dup := *rec
	if len(rec.History) > 0 {
		dup.History = make([]domain.HistoryEntry, len(rec.History))
		copy(dup.History, rec.History)
	}
	return &dup
}

func (s *Store) emit(op events.Op, id uuid.UUID, count int) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(context.Background(), events.NewStoreEvent(op, id, count)); err != nil {
		s.logger.Error("failed to emit store event", "op", op, "error", err)
	}
}
