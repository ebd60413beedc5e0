// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidDataURL is returned when a data URL is malformed, for
	// example when the encoded-data segment after the comma is missing.
	ErrInvalidDataURL = errors.New("invalid data URL")

	// ErrEmptyImageData is returned when an image payload is empty.
	ErrEmptyImageData = errors.New("image data cannot be empty")

	// ErrInvalidMediaType is returned when a media type is empty.
	ErrInvalidMediaType = errors.New("invalid media type")

	// ErrInvalidStatus is returned when a record status is not one of
	// the recognized lifecycle values.
	ErrInvalidStatus = errors.New("invalid record status")
)
