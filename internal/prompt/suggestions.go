package prompt

import "fmt"

// Category identifies one randomized suggestion source. Each enabled
// category contributes exactly one fragment to a composed prompt.
type Category string

// Suggestion categories
const (
	CategoryAngle       Category = "angle"
	CategoryCloseUp     Category = "close-up"
	CategoryPose        Category = "pose"
	CategoryExpression  Category = "expression"
	CategoryBodyParts   Category = "body-parts"
	CategoryFullBody    Category = "full-body"
	CategoryTextToVideo Category = "text-to-video"
)

// fragments maps each category to its candidate pool.
var fragments = map[Category][]string{
	CategoryAngle: {
		"from above", "from below", "from behind", "from side",
		"dutch angle", "overhead shot", "low angle shot", "eye-level shot",
	},
	CategoryCloseUp: {
		"close-up", "extreme close-up", "face focus", "upper body shot",
		"portrait framing", "macro detail shot",
	},
	CategoryPose: {
		"standing", "sitting", "walking", "leaning forward",
		"arms crossed", "hands in pockets", "looking back",
		"head tilt", "stretching",
	},
	CategoryExpression: {
		"smiling", "laughing", "serious expression", "surprised",
		"closed eyes", "gentle smile", "pensive look",
	},
	CategoryBodyParts: {
		"detailed hands", "detailed eyes", "flowing hair",
		"detailed face", "expressive eyebrows",
	},
	CategoryFullBody: {
		"full body shot", "full body standing", "wide shot",
		"head-to-toe framing", "dynamic full body pose",
	},
	CategoryTextToVideo: {
		"camera slowly zooms in", "camera pans left to right",
		"gentle wind blowing", "cinematic lighting shift",
		"slow motion", "subject turns toward camera",
	},
}

// Categories returns all known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryAngle,
		CategoryCloseUp,
		CategoryPose,
		CategoryExpression,
		CategoryBodyParts,
		CategoryFullBody,
		CategoryTextToVideo,
	}
}

// ParseCategory converts a string into a known Category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := fragments[c]; !ok {
		return "", fmt.Errorf("unknown suggestion category %q", s)
	}
	return c, nil
}

// Fragments returns the candidate pool for a category. The returned
// slice must not be mutated.
func Fragments(c Category) []string {
	return fragments[c]
}
