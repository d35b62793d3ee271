package boilerplate

import (
	"sort"
)

// SnippetCount is one entry in the top-frequent listing.
type SnippetCount struct {
	Text        string   `json:"text"`
	Occurrences int      `json:"occurrences"`
	Documents   int      `json:"documents"`
	Terms       []string `json:"terms,omitempty"`
}

// termRanker is the optional similarity-backend surface that weights terms;
// the report uses it to label each frequent snippet with its characteristic
// vocabulary.
type termRanker interface {
	TopTerms(texts []string, index, k int) []string
}

// Report aggregates detection results across a document set. Pure
// aggregation, no side effects.
type Report struct {
	DocumentCount    int            `json:"document_count"`
	SegmentCount     int            `json:"segment_count"`
	CategoryCounts   map[string]int `json:"category_counts"`
	TopFrequent      []SnippetCount `json:"top_frequent"`
	HighConfidence   int            `json:"high_confidence"`   // > 0.8
	MediumConfidence int            `json:"medium_confidence"` // 0.5 – 0.8
	LowConfidence    int            `json:"low_confidence"`    // <= 0.5
}

// GenerateReport summarizes per-document segment lists: totals, per-category
// counts, the ten most frequent normalized snippets, and a confidence
// histogram.
func (d *Detector) GenerateReport(segmentLists [][]Segment, docs []Document) Report {
	r := Report{
		DocumentCount:  len(docs),
		CategoryCounts: make(map[string]int),
	}

	type snippetAgg struct {
		sample string
		count  int
		docs   map[string]bool
	}
	snippets := make(map[string]*snippetAgg)

	for _, segs := range segmentLists {
		for _, seg := range segs {
			r.SegmentCount++
			r.CategoryCounts[seg.Category]++
			switch {
			case seg.Confidence > 0.8:
				r.HighConfidence++
			case seg.Confidence > 0.5:
				r.MediumConfidence++
			default:
				r.LowConfidence++
			}

			key := normalizeText(seg.Text)
			if key == "" {
				continue
			}
			agg := snippets[key]
			if agg == nil {
				agg = &snippetAgg{sample: seg.Text, docs: make(map[string]bool)}
				snippets[key] = agg
			}
			agg.count++
			for id := range seg.DocumentIDs {
				agg.docs[id] = true
			}
		}
	}

	all := make([]SnippetCount, 0, len(snippets))
	for _, agg := range snippets {
		all = append(all, SnippetCount{
			Text:        truncate(agg.sample, 120),
			Occurrences: agg.count,
			Documents:   len(agg.docs),
		})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Occurrences != all[j].Occurrences {
			return all[i].Occurrences > all[j].Occurrences
		}
		return all[i].Text < all[j].Text
	})
	if len(all) > 10 {
		all = all[:10]
	}
	if ranker, ok := d.cfg.Backend.(termRanker); ok && len(all) > 0 {
		texts := make([]string, len(all))
		for i, sc := range all {
			texts[i] = sc.Text
		}
		for i := range all {
			all[i].Terms = ranker.TopTerms(texts, i, 3)
		}
	}
	r.TopFrequent = all
	return r
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
