// Package events decouples the queue store from the components that
// react to it. The store emits a StoreEvent after every committed
// mutation; the batch scheduler subscribes so its tick loop re-evaluates
// whenever the store changes, without the store knowing about the
// scheduler.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Op identifies the kind of store mutation that occurred.
type Op string

// Store mutation kinds
const (
	OpEnqueue      Op = "enqueue"
	OpStatusChange Op = "status_change"
	OpRequeue      Op = "requeue"
	OpPromote      Op = "promote"
	OpRemove       Op = "remove"
	OpReplace      Op = "replace"
	OpClear        Op = "clear"
)

// StoreEvent describes one committed store mutation.
type StoreEvent struct {
	// Op is the mutation kind.
	Op Op

	// RecordID identifies the affected record for single-record ops;
	// it is uuid.Nil for bulk operations.
	RecordID uuid.UUID

	// Count is the number of records affected.
	Count int

	// At is the timestamp when the event was created.
	At time.Time
}

// NewStoreEvent creates a StoreEvent for the given mutation.
func NewStoreEvent(op Op, recordID uuid.UUID, count int) StoreEvent {
	return StoreEvent{
		Op:       op,
		RecordID: recordID,
		Count:    count,
		At:       time.Now(),
	}
}

// Handler is implemented by components that react to store mutations.
type Handler interface {
	// HandleStoreEvent processes the given event within the provided
	// context. Returns an error if the event cannot be handled.
	HandleStoreEvent(ctx context.Context, event StoreEvent) error
}

// Emitter publishes store events to registered handlers. This allows
// the store to announce mutations without direct knowledge of who
// listens.
type Emitter interface {
	// Emit publishes the given event to all registered handlers.
	Emit(ctx context.Context, event StoreEvent) error
}
