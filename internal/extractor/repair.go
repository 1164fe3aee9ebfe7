package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/newscrawler/internal/model"
)

var (
	// fenceOpen matches an opening ```json fence and the whitespace after it.
	fenceOpen = regexp.MustCompile("```json\\s*")

	// fenceClose matches a closing fence at the end of the text.
	fenceClose = regexp.MustCompile("```\\s*$")

	// objectBlock matches from the first '{' to the last '}'.
	objectBlock = regexp.MustCompile(`(?s)\{.*\}`)
)

// CleanJSONResponse extracts the JSON object from a model answer that may be
// wrapped in markdown fences or surrounded by prose. When no brace-delimited
// block is found the trimmed text is returned.
func CleanJSONResponse(text string) string {
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")

	if block := objectBlock.FindString(text); block != "" {
		return block
	}
	return strings.TrimSpace(text)
}

// Repair converts a loosely typed oracle answer into an ExtractedArticle.
//
// Missing fields become "", an empty tag list or false. A tag field holding a
// single string becomes a one-element list. A non-boolean is_relevant is true
// only when its string form is "true", "1" or "yes". Tags are filtered to the
// vocabulary of lang.
func Repair(fields map[string]any, lang model.Language) model.ExtractedArticle {
	return model.ExtractedArticle{
		Title:       stringField(fields, "title"),
		Summary:     stringField(fields, "summary"),
		Tags:        model.ValidateTagsFor(tagsField(fields, "tags"), lang),
		PublishDate: stringField(fields, "publish_date"),
		IsRelevant:  boolField(fields, "is_relevant"),
	}
}

// stringField returns the trimmed string form of a scalar field.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []any, map[string]any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// tagsField returns the string entries of a tag field.
func tagsField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return tags
	default:
		return nil
	}
}

// boolField coerces a relevance flag.
func boolField(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		switch strings.ToLower(strings.TrimSpace(fmt.Sprint(v))) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	}
}
