// Package editing defines the interfaces to the external generative
// image services. These interfaces form the boundary between the
// application core and the remote provider, following the hexagonal
// architecture pattern; internal/platform/gemini supplies the real
// implementations.
package editing

import "context"

// EditedImage is the result of a successful edit call.
type EditedImage struct {
	Data      []byte
	MediaType string
}

// EditService applies a text prompt to an image and returns the edited
// result.
type EditService interface {
	// Edit submits the image and prompt to the provider and returns the
	// generated image. Failures are classified via the sentinel errors
	// in this package (see errors.go).
	Edit(ctx context.Context, data []byte, mediaType string, prompt string) (EditedImage, error)
}

// TagService describes an image as a comma-separated tag list.
type TagService interface {
	Tag(ctx context.Context, data []byte, mediaType string, systemPrompt string) (string, error)
}

// EnhanceService rewrites a freeform prompt into an improved one.
type EnhanceService interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}
