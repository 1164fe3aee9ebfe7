package model

import (
	"strings"

	"golang.org/x/text/cases"
)

// foldTag performs Unicode case folding for tag comparison.
// cases.Caser is stateful, so a fresh one is created per call.
func foldTag(s string) string {
	return cases.Fold().String(s)
}

// ValidateTags filters tags down to the controlled vocabulary.
//
// Each candidate is trimmed and matched exactly first, then case-insensitively;
// a case-insensitive match is replaced by the vocabulary's canonical spelling.
// Candidates outside the vocabulary are dropped. The result is deduplicated
// in first-seen order and is never nil.
//
// Example: vocabulary {"Legislation", "Policy"} and input
// {"legislation", "Unknown"} yields {"Legislation"}.
func ValidateTags(tags, vocabulary []string) []string {
	exact := make(map[string]string, len(vocabulary))
	folded := make(map[string]string, len(vocabulary))
	for _, v := range vocabulary {
		exact[v] = v
		if _, dup := folded[foldTag(v)]; !dup {
			folded[foldTag(v)] = v
		}
	}

	result := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}

		canonical, ok := exact[tag]
		if !ok {
			canonical, ok = folded[foldTag(tag)]
		}
		if !ok || seen[canonical] {
			continue
		}

		seen[canonical] = true
		result = append(result, canonical)
	}

	return result
}

// ValidateTagsFor is ValidateTags against the language's vocabulary.
func ValidateTagsFor(tags []string, lang Language) []string {
	return ValidateTags(tags, lang.Vocabulary())
}
