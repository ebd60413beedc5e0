// Package prompt composes the final prompt string for a record from a
// global prompt, a per-image prompt, and randomized suggestion
// fragments. It also owns tag normalization, which the tagging adapter
// shares.
package prompt

import "strings"

// Mode selects how the composer joins its inputs.
type Mode string

// Composition modes
const (
	// TagMode splits every input on commas and unions the pieces,
	// preserving first-seen order. This is the default.
	TagMode Mode = "tags"

	// NaturalMode treats every input as a full phrase and joins the
	// non-empty ones with ". ".
	NaturalMode Mode = "natural"
)

// IsValid reports whether the mode is one of the recognized values.
func (m Mode) IsValid() bool {
	return m == TagMode || m == NaturalMode
}

// Compose combines the global prompt, the per-image prompt, and zero or
// more randomized fragments into one prompt string. Precedence order is
// global, then image, then fragments. Empty and whitespace-only inputs
// are omitted; no empty segments or stray separators are ever produced.
//
// Compose is a pure function of its resolved inputs: given the same
// strings it always returns the same result.
func Compose(global, image string, fragments []string, mode Mode) string {
	inputs := make([]string, 0, 2+len(fragments))
	inputs = append(inputs, global, image)
	inputs = append(inputs, fragments...)

	if mode == NaturalMode {
		return composeNatural(inputs)
	}
	return composeTags(inputs)
}

func composeTags(inputs []string) string {
	seen := make(map[string]struct{})
	var tags []string

	for _, input := range inputs {
		for _, tag := range SplitTags(input) {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}

	return strings.Join(tags, ", ")
}

func composeNatural(inputs []string) string {
	var phrases []string
	for _, input := range inputs {
		if phrase := strings.TrimSpace(input); phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return strings.Join(phrases, ". ")
}

// SplitTags splits a comma-separated tag string into trimmed, non-empty
// tags. Case is preserved; only explicit normalization (NormalizeTags)
// lowercases.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
