package queue

import "errors"

// Common store errors.
var (
	// ErrRecordNotFound is returned when the requested record does not
	// exist in the store.
	ErrRecordNotFound = errors.New("image record not found")

	// ErrAlreadyProcessing is returned when a transition to PROCESSING
	// would violate the single-flight invariant (another record is
	// already PROCESSING).
	ErrAlreadyProcessing = errors.New("another record is already processing")

	// ErrNotPromotable is returned when a promotion targets a record
	// that is not COMPLETED or has no edited result.
	ErrNotPromotable = errors.New("record has no edited result to promote")

	// ErrRecordHeld is returned when an interactive session holds the
	// record: a second hold is refused, and so is the PROCESSING
	// transition, keeping the batch and the session off the same record.
	ErrRecordHeld = errors.New("record is held by an edit session")
)
