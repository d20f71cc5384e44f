package domain

import "strings"

// Common Bengali function words and farm terms. The script-range check below
// already covers most Bengali text; the word list keeps detection stable for
// short fragments.
var bengaliIndicators = []string{
	"আমি", "তুমি", "আপনি", "কী", "কেন", "কখন", "কোথায়", "কিভাবে",
	"ধন্যবাদ", "নমস্কার", "ফসল", "ধান", "আলু", "টমেটো", "রোগ", "পোকা",
}

// DetectLanguage classifies text as Bengali or English. Deterministic and
// cheap: the two supported languages use non-overlapping scripts, so a
// script-range scan is enough. Empty or whitespace-only input is English.
func DetectLanguage(text string) Language {
	if strings.TrimSpace(text) == "" {
		return LanguageEnglish
	}

	for _, r := range text {
		if r >= 0x0980 && r <= 0x09FF {
			return LanguageBengali
		}
	}

	for _, word := range bengaliIndicators {
		if strings.Contains(text, word) {
			return LanguageBengali
		}
	}

	return LanguageEnglish
}
