package advisory

import (
	"strings"
	"testing"
)

func TestCleanForSpeech_StripsMarkdown(t *testing.T) {
	cases := map[string]string{
		"**bold** advice":                "bold advice",
		"*italic* and __strong__":        "italic and strong",
		"# Heading\nuse neem oil":        "Heading. use neem oil",
		"see [this guide](http://x.y)":   "see this guide",
		"apply `urea` fertilizer":        "apply urea fertilizer",
		"- first step\n- second step":    "first step. second step",
		"1. water daily\n2. add mulch":   "water daily. add mulch",
		"spray   twice\n\n\nper   week":  "spray twice. per week",
	}

	for in, want := range cases {
		if got := CleanForSpeech(in); got != want {
			t.Errorf("CleanForSpeech(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanForSpeech_RemovesCodeBlocks(t *testing.T) {
	in := "before\n```\nnpk = 10\n```\nafter"
	got := CleanForSpeech(in)
	if strings.Contains(got, "npk") {
		t.Errorf("code block content survived cleaning: %q", got)
	}
}

func TestCleanForSpeech_Idempotent(t *testing.T) {
	inputs := []string{
		"**ধানের** পাতায় _রোগ_ হলে\n- নিম তেল দিন\n- পানি কমান",
		"# Tomato care\n1. stake plants\n2. prune suckers\nsee `docs`",
		"plain sentence already clean.",
		"",
	}

	for _, in := range inputs {
		once := CleanForSpeech(in)
		twice := CleanForSpeech(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestBoundText(t *testing.T) {
	if got := boundText("short", 500); got != "short" {
		t.Errorf("boundText changed text under the limit: %q", got)
	}
	long := strings.Repeat("আ", 600)
	if got := boundText(long, 500); len([]rune(got)) != 500 {
		t.Errorf("boundText returned %d runes, want 500", len([]rune(got)))
	}
}
