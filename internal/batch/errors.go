package batch

import "errors"

// Common errors returned by the batch scheduler.
var (
	// ErrValidation is returned when a batch start has no prompt
	// source: no global prompt, no per-image prompts, no active
	// randomization categories, and auto-tagging disabled.
	ErrValidation = errors.New("no prompt source for batch")

	// ErrAlreadyRunning is returned when Start is called while a batch
	// is running or cooling down.
	ErrAlreadyRunning = errors.New("a batch is already running")

	// ErrNothingToProcess is returned when Start finds no queued
	// records.
	ErrNothingToProcess = errors.New("no queued records to process")

	// ErrNotRunning is returned when Cancel is called while idle.
	ErrNotRunning = errors.New("no batch is running")
)
