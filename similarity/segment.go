package similarity

import (
	"strings"
	"unicode"
)

// Span is a text segment with byte offsets into the source document.
type Span struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// SplitSentences splits text into sentence spans with byte offsets.
// Sentence boundaries are '.', '!' or '?' followed by whitespace and an
// uppercase letter or end of text. Abbreviation handling is minimal: a
// period after a single capital letter (middle initials, "J. Smith") or a
// known legal abbreviation does not end a sentence.
func SplitSentences(text string) []Span {
	var spans []Span
	runes := []rune(text)

	start := 0   // byte offset of current sentence
	offset := 0  // byte offset of current rune
	prevEnd := 0 // byte offset just past the last boundary

	for i, r := range runes {
		size := len(string(r))
		if r == '.' || r == '!' || r == '?' {
			if r == '.' && isAbbreviation(runes, i) {
				offset += size
				continue
			}
			// Look ahead: boundary needs whitespace then uppercase, or EOF.
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && !unicode.IsUpper(runes[j]) && runes[j] != '(' && !unicode.IsDigit(runes[j]) {
				offset += size
				continue
			}
			end := offset + size
			if s := strings.TrimSpace(text[start:end]); s != "" {
				spans = append(spans, trimmedSpan(text, start, end))
			}
			start = end
			prevEnd = end
		}
		offset += size
	}
	if s := strings.TrimSpace(text[prevEnd:]); s != "" {
		spans = append(spans, trimmedSpan(text, prevEnd, len(text)))
	}
	return spans
}

// legalAbbrevs are periods that do not terminate a sentence in filings.
var legalAbbrevs = []string{"No", "Nos", "v", "vs", "Inc", "Corp", "LLC", "Ltd", "Co", "Mr", "Mrs", "Ms", "Dr", "Hon", "Esq", "Jr", "Sr", "St", "Fed", "Cal", "Civ", "Proc", "Evid", "Cit", "Dept", "App", "Dist", "Ct", "Sec", "Para", "Ex", "Id", "cf", "etc", "seq"}

func isAbbreviation(runes []rune, dot int) bool {
	// Collect the word immediately before the period.
	start := dot
	for start > 0 && unicode.IsLetter(runes[start-1]) {
		start--
	}
	word := string(runes[start:dot])
	if len(word) == 1 {
		return true // single-letter initial
	}
	for _, ab := range legalAbbrevs {
		if strings.EqualFold(word, ab) {
			return true
		}
	}
	return false
}

// SplitParagraphs splits text on blank lines, the fallback segmentation when
// sentence splitting is unavailable or unwanted.
func SplitParagraphs(text string) []Span {
	var spans []Span
	start := 0
	for start < len(text) {
		end := strings.Index(text[start:], "\n\n")
		var chunk string
		var chunkEnd int
		if end < 0 {
			chunk = text[start:]
			chunkEnd = len(text)
		} else {
			chunk = text[start : start+end]
			chunkEnd = start + end
		}
		if strings.TrimSpace(chunk) != "" {
			spans = append(spans, trimmedSpan(text, start, chunkEnd))
		}
		if end < 0 {
			break
		}
		start = chunkEnd + 2
	}
	return spans
}

// trimmedSpan narrows [start,end) to exclude leading and trailing whitespace
// so span offsets point at the actual content.
func trimmedSpan(text string, start, end int) Span {
	for start < end {
		r := text[start]
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			start++
			continue
		}
		break
	}
	for end > start {
		r := text[end-1]
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			end--
			continue
		}
		break
	}
	return Span{Text: text[start:end], Start: start, End: end}
}
