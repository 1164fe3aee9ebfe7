package model

import "strings"

// Language identifies the language a news source publishes in.
// It selects both the extraction prompt and the controlled tag vocabulary.
type Language string

const (
	// LanguageEnglish is used for English-language sources.
	LanguageEnglish Language = "en"

	// LanguageTraditionalChinese is used for Traditional Chinese sources (Hong Kong, Taiwan).
	LanguageTraditionalChinese Language = "zh-hk"

	// LanguageSimplifiedChinese is used for Simplified Chinese sources.
	// It is also the fallback for any unrecognized language code.
	LanguageSimplifiedChinese Language = "zh"
)

// languageAliases maps alternative spellings found in source registries
// to the canonical Language values.
var languageAliases = map[string]Language{
	"en":             LanguageEnglish,
	"en-us":          LanguageEnglish,
	"en-gb":          LanguageEnglish,
	"english":        LanguageEnglish,
	"zh-hk":          LanguageTraditionalChinese,
	"zh-tw":          LanguageTraditionalChinese,
	"zh-hant":        LanguageTraditionalChinese,
	"zh-traditional": LanguageTraditionalChinese,
	"zh":             LanguageSimplifiedChinese,
	"zh-cn":          LanguageSimplifiedChinese,
	"zh-hans":        LanguageSimplifiedChinese,
	"zh-simplified":  LanguageSimplifiedChinese,
}

// ParseLanguage converts a registry language code into a Language.
// Unknown or empty codes fall back to LanguageSimplifiedChinese, and the
// second return value reports whether the code was recognized.
func ParseLanguage(code string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return LanguageSimplifiedChinese, false
	}
	return lang, true
}

// String returns the language code.
func (l Language) String() string {
	return string(l)
}

// Languages returns all supported languages in a stable order.
func Languages() []Language {
	return []Language{
		LanguageEnglish,
		LanguageTraditionalChinese,
		LanguageSimplifiedChinese,
	}
}

// vocabularies holds the controlled tag vocabulary per language.
// The order of each slice is the canonical presentation order.
var vocabularies = map[Language][]string{
	LanguageEnglish:            {"Legislation", "Policy", "HKICPA", "ACCA"},
	LanguageTraditionalChinese: {"立法", "政策", "HKICPA", "ACCA"},
	LanguageSimplifiedChinese:  {"立法", "政策", "HKICPA", "ACCA"},
}

// Vocabulary returns the controlled tag vocabulary for the language.
// A copy is returned so callers cannot mutate the shared table.
// Unknown languages receive the Simplified Chinese vocabulary.
func (l Language) Vocabulary() []string {
	vocab, ok := vocabularies[l]
	if !ok {
		vocab = vocabularies[LanguageSimplifiedChinese]
	}
	out := make([]string, len(vocab))
	copy(out, vocab)
	return out
}
