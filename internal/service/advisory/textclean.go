package advisory

import (
	"regexp"
	"strings"
)

// Generated replies arrive as markdown; speech synthesis must not read the
// markup aloud.
var (
	reBoldStars     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	reItalicStar    = regexp.MustCompile(`\*([^*]+)\*`)
	reBoldUnder     = regexp.MustCompile(`__([^_]+)__`)
	reItalicUnder   = regexp.MustCompile(`_([^_]+)_`)
	reHeader        = regexp.MustCompile(`(?m)^#+\s+`)
	reLink          = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	reCodeBlock     = regexp.MustCompile("```[\\s\\S]*?```")
	reInlineCode    = regexp.MustCompile("`([^`]+)`")
	reBulletList    = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	reNumberedList  = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	reStraySymbols  = regexp.MustCompile("[#*_~`]")
	reNewlines      = regexp.MustCompile(`\n+`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// CleanForSpeech strips markdown and formatting artifacts so the synthesizer
// reads only prose. Newlines become sentence breaks. Idempotent.
func CleanForSpeech(text string) string {
	text = reBoldStars.ReplaceAllString(text, "$1")
	text = reItalicStar.ReplaceAllString(text, "$1")
	text = reBoldUnder.ReplaceAllString(text, "$1")
	text = reItalicUnder.ReplaceAllString(text, "$1")

	text = reHeader.ReplaceAllString(text, "")
	text = reLink.ReplaceAllString(text, "$1")
	text = reCodeBlock.ReplaceAllString(text, "")
	text = reInlineCode.ReplaceAllString(text, "$1")
	text = reBulletList.ReplaceAllString(text, "")
	text = reNumberedList.ReplaceAllString(text, "")
	text = reStraySymbols.ReplaceAllString(text, "")

	text = reNewlines.ReplaceAllString(text, ". ")
	text = reWhitespace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// boundText truncates text to at most max runes. Used when cleaning removes
// everything and the synthesizer falls back to the raw reply.
func boundText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
