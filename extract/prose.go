package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var markupStripper = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")

// StripBlocks removes the marker span of every block from text, in order.
// blocks must come from Scan(text).
func StripBlocks(text string, blocks []FileBlock) string {
	if len(blocks) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, block := range blocks {
		b.WriteString(text[pos:block.Start])
		pos = block.End
	}
	b.WriteString(text[pos:])
	return b.String()
}

// NormalizeProse applies the cosmetic cleanup shown to the user: emphasis
// punctuation is dropped everywhere, a heading marker is dropped from the
// first non-blank line only, and surrounding whitespace is trimmed.
func NormalizeProse(s string) string {
	s = markupStripper.Replace(s)
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	s = stripLeadingHeading(s)
	return strings.TrimSpace(s)
}

// stripLeadingHeading removes a run of '#' followed by one whitespace rune
// at the start of s.
func stripLeadingHeading(s string) string {
	i := 0
	for i < len(s) && s[i] == '#' {
		i++
	}
	if i == 0 || i == len(s) {
		return s
	}
	r, size := utf8.DecodeRuneInString(s[i:])
	if !unicode.IsSpace(r) {
		return s
	}
	return s[i+size:]
}
