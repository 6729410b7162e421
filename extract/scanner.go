// Package extract separates embedded file blocks from conversational prose
// in a streamed model reply.
//
// The model embeds files with a tagged-block protocol:
//
//	<file name="index.html" language="html">
//	...raw content...
//	</file>
//
// Extraction is a pure function of the accumulated reply text. Callers
// re-run it over the whole text after every streamed chunk; a block with no
// closing marker yet is reported as incomplete with everything after its
// opening marker as content, so editors can render it while it streams.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Marker literals of the wire format. They must match the system prompt.
const (
	openPrefix   = "<file"
	nameAttr     = `name="`
	languageAttr = `language="`
	openSuffix   = ">"
	CloseMarker  = "</file>"
)

// FileBlock is one file detected in the reply text.
type FileBlock struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Content  string `json:"content"`
	// Complete is true once the closing marker has been observed.
	Complete bool `json:"complete"`

	// Start and End are byte offsets of the whole marker span: the opening
	// marker through the closing marker, or through the end of the text.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Scan returns every file block in text, in scan order. Matches never
// overlap: scanning resumes after the end of each matched span. An opening
// marker that fails to parse is skipped one byte at a time and left as prose.
func Scan(text string) []FileBlock {
	blocks := []FileBlock{}
	pos := 0
	for pos < len(text) {
		idx := strings.Index(text[pos:], openPrefix)
		if idx < 0 {
			break
		}
		start := pos + idx

		name, language, bodyStart, ok := parseOpenTag(text, start)
		if !ok {
			pos = start + 1
			continue
		}

		block := FileBlock{Name: name, Language: language, Start: start}
		if n := strings.Index(text[bodyStart:], CloseMarker); n >= 0 {
			block.Content = text[bodyStart : bodyStart+n]
			block.Complete = true
			block.End = bodyStart + n + len(CloseMarker)
		} else {
			block.Content = text[bodyStart:]
			block.End = len(text)
		}
		blocks = append(blocks, block)
		pos = block.End
	}
	return blocks
}

// parseOpenTag parses `<file name="N" language="L">` starting at start.
// It returns the attribute values and the offset just past the tag.
func parseOpenTag(text string, start int) (name, language string, end int, ok bool) {
	i := start + len(openPrefix)

	if i, ok = skipSpace(text, i); !ok {
		return "", "", 0, false
	}
	if name, i, ok = readAttr(text, i, nameAttr); !ok {
		return "", "", 0, false
	}
	if i, ok = skipSpace(text, i); !ok {
		return "", "", 0, false
	}
	if language, i, ok = readAttr(text, i, languageAttr); !ok {
		return "", "", 0, false
	}
	if !strings.HasPrefix(text[i:], openSuffix) {
		return "", "", 0, false
	}
	return name, language, i + len(openSuffix), true
}

// skipSpace consumes one or more whitespace runes.
func skipSpace(text string, i int) (int, bool) {
	j := i
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(r) {
			break
		}
		j += size
	}
	return j, j > i
}

// readAttr reads prefix followed by a non-empty value and a closing quote.
// There is no escaping: the value ends at the first quote.
func readAttr(text string, i int, prefix string) (string, int, bool) {
	if !strings.HasPrefix(text[i:], prefix) {
		return "", 0, false
	}
	j := i + len(prefix)
	q := strings.IndexByte(text[j:], '"')
	if q <= 0 {
		return "", 0, false
	}
	return text[j : j+q], j + q + 1, true
}
