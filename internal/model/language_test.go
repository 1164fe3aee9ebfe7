package model

import "testing"

// TestParseLanguage tests mapping registry codes to languages.
func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      string
		want      Language
		recognize bool
	}{
		{"en", LanguageEnglish, true},
		{"EN", LanguageEnglish, true},
		{"zh-hk", LanguageTraditionalChinese, true},
		{"zh-traditional", LanguageTraditionalChinese, true},
		{"zh", LanguageSimplifiedChinese, true},
		{" zh-simplified ", LanguageSimplifiedChinese, true},
		{"fr", LanguageSimplifiedChinese, false},
		{"", LanguageSimplifiedChinese, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseLanguage(tt.code)
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.code, got, tt.want)
			}
			if ok != tt.recognize {
				t.Errorf("ParseLanguage(%q) recognized = %v, want %v", tt.code, ok, tt.recognize)
			}
		})
	}
}

// TestLanguageVocabulary tests the controlled vocabularies.
func TestLanguageVocabulary(t *testing.T) {
	t.Parallel()

	t.Run("english vocabulary", func(t *testing.T) {
		t.Parallel()

		vocab := LanguageEnglish.Vocabulary()
		if len(vocab) != 4 || vocab[0] != "Legislation" {
			t.Errorf("unexpected english vocabulary: %q", vocab)
		}
	})

	t.Run("unknown language falls back to simplified chinese", func(t *testing.T) {
		t.Parallel()

		vocab := Language("fr").Vocabulary()
		if len(vocab) != 4 || vocab[0] != "立法" {
			t.Errorf("unexpected fallback vocabulary: %q", vocab)
		}
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		t.Parallel()

		vocab := LanguageEnglish.Vocabulary()
		vocab[0] = "mutated"
		if LanguageEnglish.Vocabulary()[0] != "Legislation" {
			t.Error("vocabulary table was mutated through returned slice")
		}
	})
}
