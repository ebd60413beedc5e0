package prompt

import "strings"

// NormalizeTags cleans up a raw comma-separated tag string returned by
// the tagging service: it strips a single trailing period, trims
// whitespace, lowercases every tag, drops empties, deduplicates
// preserving first-seen order, and rejoins with ", ".
func NormalizeTags(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".")

	seen := make(map[string]struct{})
	var tags []string
	for _, tag := range SplitTags(s) {
		tag = strings.ToLower(tag)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return strings.Join(tags, ", ")
}

// MergeTags unions two comma-separated tag strings, preserving the
// order of the first and appending unseen tags from the second.
func MergeTags(base, extra string) string {
	return composeTags([]string{base, extra})
}
