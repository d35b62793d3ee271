// CLAUDE:SUMMARY Protection pattern table and preserved-range computation for boilerplate removal.
package scrub

import (
	"regexp"
	"sort"
	"strings"
)

// PreservedRange marks text that must never be altered, whatever confidence
// a boilerplate segment carries. Ranges are derived fresh from the
// protection patterns on every call and merged when overlapping.
type PreservedRange struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Category string `json:"category"`
}

// ProtectionPattern pairs a category label with a raw regex source.
type ProtectionPattern struct {
	Category string
	Pattern  string
}

// DefaultProtectionPatterns covers the legal content whose loss would be a
// correctness failure: case numbers, party captions, dates, court and judge
// names, monetary figures, and standard document headers.
func DefaultProtectionPatterns() []ProtectionPattern {
	return []ProtectionPattern{
		{"case_number", `case\s+no\.?\s*:?\s*[A-Za-z0-9:\-]{4,20}`},
		{"case_number", `\b\d{2}[A-Za-z]{2,4}\d{3,8}\b`},
		{"party_caption", `[A-Z][A-Za-z.,'&\s]{2,60}\bv(?:s)?\.\s+[A-Z][A-Za-z.,'&\s]{2,60}`},
		{"date", `\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`},
		{"date", `\b\d{1,2}/\d{1,2}/\d{2,4}\b`},
		{"court_name", `(?:superior|district|supreme|appellate|circuit|municipal|bankruptcy)\s+court(?:\s+(?:of|for)\s+[^\n,.]{1,60})?`},
		{"judge_name", `(?:judge|justice|hon\.|honorable)\s+[A-Z][a-z]+(?:\s+[A-Z]\.?)?(?:\s+[A-Z][a-z]+)?`},
		{"monetary", `\$\s?[\d,]+(?:\.\d{2})?`},
		{"document_header", `(?m)^\s*(?:complaint|answer|motion|declaration|notice|order|stipulation|summons|subpoena|memorandum)\b[^\n]{0,80}$`},
	}
}

type compiledProtection struct {
	category string
	re       *regexp.Regexp
}

func compileProtections(patterns []ProtectionPattern) ([]compiledProtection, error) {
	out := make([]compiledProtection, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p.Pattern)
		if err != nil {
			return nil, err
		}
		out = append(out, compiledProtection{category: p.Category, re: re})
	}
	return out, nil
}

// preservedRanges finds all protected spans in text and merges overlaps.
// Merging takes the union interval and concatenates category labels.
func preservedRanges(text string, patterns []compiledProtection) []PreservedRange {
	var ranges []PreservedRange
	for _, p := range patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			ranges = append(ranges, PreservedRange{Start: loc[0], End: loc[1], Category: p.category})
		}
	}
	return mergeRanges(ranges)
}

func mergeRanges(ranges []PreservedRange) []PreservedRange {
	if len(ranges) == 0 {
		return nil
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].Start != ranges[j].Start {
			return ranges[i].Start < ranges[j].Start
		}
		return ranges[i].End < ranges[j].End
	})
	merged := []PreservedRange{ranges[0]}
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			if !strings.Contains(last.Category, r.Category) {
				last.Category += "+" + r.Category
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// overlapsPreserved reports whether [start,end) touches any preserved range.
// Any overlap at all disqualifies a segment from removal.
func overlapsPreserved(start, end int, ranges []PreservedRange) (PreservedRange, bool) {
	for _, r := range ranges {
		if start < r.End && end > r.Start {
			return r, true
		}
	}
	return PreservedRange{}, false
}
