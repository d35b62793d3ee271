package scrub

import "github.com/hazyhaar/lexpipe/boilerplate"

// ProcessAll fans Process out over a document batch, one result per input
// document, in order. Segment lists pair positionally with documents.
func (p *Processor) ProcessAll(docs []boilerplate.Document, segmentLists [][]boilerplate.Segment) []ProcessingResult {
	results := make([]ProcessingResult, len(docs))
	for i, doc := range docs {
		var segs []boilerplate.Segment
		if i < len(segmentLists) {
			segs = segmentLists[i]
		}
		results[i] = p.Process(doc.Text, segs, doc.Metadata)
	}
	return results
}

// BatchReport aggregates removal outcomes across a processed batch.
type BatchReport struct {
	DocumentCount     int     `json:"document_count"`
	TotalRemovedChars int     `json:"total_removed_chars"`
	TotalSegments     int     `json:"total_segments"`
	MeanRemovedPct    float64 `json:"mean_removed_pct"`
	HighRemoval       int     `json:"high_removal"`   // > 50%
	MediumRemoval     int     `json:"medium_removal"` // 20 – 50%
	LowRemoval        int     `json:"low_removal"`    // <= 20%
}

// GenerateReport buckets documents by removal percentage and totals the
// removed volume. Pure aggregation.
func GenerateReport(results []ProcessingResult) BatchReport {
	r := BatchReport{DocumentCount: len(results)}
	var pctSum float64
	for _, res := range results {
		r.TotalRemovedChars += res.Stats.RemovedChars
		r.TotalSegments += res.Stats.SegmentsRemoved
		pctSum += res.Stats.RemovedPercent
		switch {
		case res.Stats.RemovedPercent > 50:
			r.HighRemoval++
		case res.Stats.RemovedPercent > 20:
			r.MediumRemoval++
		default:
			r.LowRemoval++
		}
	}
	if len(results) > 0 {
		r.MeanRemovedPct = pctSum / float64(len(results))
	}
	return r
}
