// CLAUDE:SUMMARY Three-phase boilerplate detector: fixed patterns, cross-document similarity, frequency analysis.
// Package boilerplate finds repeated and templated legal text across document
// sets.
//
// Detection runs three phases, each enriching the previous phase's output:
//
//  1. Fixed pattern matching — known objection/citation/procedural templates,
//     flagged verbatim with confidence 0.9.
//  2. Cross-document similarity — TF-IDF cosine over sentence or paragraph
//     chunks; catches paraphrased boilerplate the pattern table misses.
//     Requires a similarity backend and at least two documents.
//  3. Frequency analysis — normalized text recurring across enough documents
//     is boilerplate even when no pattern or pairwise similarity fires.
//
// Segment enrichment across phases works by index into the per-document
// result slices, never by aliasing segment pointers across lists.
package boilerplate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/hazyhaar/lexpipe/similarity"
)

// Document is one input to detection.
type Document struct {
	ContentID string            `json:"content_id"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Segment is a detected span of repeated or templated text. Byte offsets
// index into the source document's text.
type Segment struct {
	Text        string          `json:"text"`
	StartPos    int             `json:"start_pos"`
	EndPos      int             `json:"end_pos"`
	Confidence  float64         `json:"confidence"`
	PatternType string          `json:"pattern_type"`
	Category    string          `json:"category"`
	Frequency   int             `json:"frequency"`
	DocumentIDs map[string]bool `json:"document_ids"`
}

// SimilarityBackend computes pairwise similarity over a set of text chunks.
// Absence degrades detection to pattern + frequency phases only.
type SimilarityBackend interface {
	Similarities(texts []string) [][]float64
}

// Segmenter splits text into offset-aware chunks for the similarity phase.
type Segmenter func(text string) []similarity.Span

// Config configures a Detector.
type Config struct {
	// SimilarityThreshold is the minimum pairwise cosine similarity between
	// chunks of different documents for a similarity flag (default: 0.85).
	SimilarityThreshold float64 `json:"similarity_threshold" yaml:"similarity_threshold"`
	// MinChunkChars is the minimum chunk length considered in the
	// similarity phase (default: 20).
	MinChunkChars int `json:"min_chunk_chars" yaml:"min_chunk_chars"`
	// FrequencyRatio scales the recurrence threshold for phase 3: a
	// normalized text is frequent when it appears in at least
	// max(2, FrequencyRatio*docCount) documents (default: 0.3).
	FrequencyRatio float64 `json:"frequency_ratio" yaml:"frequency_ratio"`

	// Patterns substitutes the fixed pattern library (default:
	// DefaultPatterns). Injected so tests can use custom tables.
	Patterns []CategoryPatterns `json:"-" yaml:"-"`
	// Backend is the optional similarity backend.
	Backend SimilarityBackend `json:"-" yaml:"-"`
	// Segment is the optional chunking strategy for the similarity phase.
	// Nil degrades to paragraph splitting on blank lines.
	Segment Segmenter `json:"-" yaml:"-"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 0.85
	}
	if c.MinChunkChars <= 0 {
		c.MinChunkChars = 20
	}
	if c.FrequencyRatio <= 0 {
		c.FrequencyRatio = 0.3
	}
	if c.Patterns == nil {
		c.Patterns = DefaultPatterns()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Detector runs the three-phase pipeline. Pattern tables are compiled once
// at construction; read-only afterwards.
type Detector struct {
	cfg        Config
	compiled   []compiledCategory
	hasBackend bool
	segment    Segmenter
	logger     *slog.Logger
}

// New creates a Detector. It fails only on an invalid injected pattern.
func New(cfg Config) (*Detector, error) {
	cfg.defaults()
	compiled, err := compilePatterns(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("boilerplate: compile patterns: %w", err)
	}
	segment := cfg.Segment
	if segment == nil {
		segment = similarity.SplitParagraphs
	}
	return &Detector{
		cfg:        cfg,
		compiled:   compiled,
		hasBackend: cfg.Backend != nil,
		segment:    segment,
		logger:     cfg.Logger,
	}, nil
}

// Detect finds boilerplate segments in every document. The result holds one
// segment list per input document, in input order. Empty input returns an
// empty (non-nil) slice; a bad individual document yields an empty list for
// that document, never a batch failure.
func (d *Detector) Detect(docs []Document) [][]Segment {
	results := make([][]Segment, len(docs))
	if len(docs) == 0 {
		return results
	}

	for i, doc := range docs {
		results[i] = d.patternPhase(doc)
	}

	if d.hasBackend && len(docs) > 1 {
		d.similarityPhase(docs, results)
	} else if !d.hasBackend {
		d.logger.Debug("similarity backend unavailable, skipping phase 2")
	}

	d.frequencyPhase(docs, results)

	for i := range results {
		sort.SliceStable(results[i], func(a, b int) bool {
			return results[i][a].StartPos < results[i][b].StartPos
		})
	}
	return results
}

// patternPhase matches the fixed pattern library against one document.
func (d *Detector) patternPhase(doc Document) []Segment {
	var segments []Segment
	for _, cc := range d.compiled {
		for idx, re := range cc.patterns {
			for _, loc := range re.FindAllStringIndex(doc.Text, -1) {
				segments = append(segments, Segment{
					Text:        doc.Text[loc[0]:loc[1]],
					StartPos:    loc[0],
					EndPos:      loc[1],
					Confidence:  0.9,
					PatternType: fmt.Sprintf("%s_%d", cc.category, idx),
					Category:    cc.category,
					Frequency:   1,
					DocumentIDs: map[string]bool{doc.ContentID: true},
				})
			}
		}
	}
	return segments
}

// chunkRef locates one similarity chunk inside its source document.
type chunkRef struct {
	docIdx int
	span   similarity.Span
}

// similarityPhase chunks every document, vectorizes all chunks together and
// flags cross-document pairs above the threshold. Flagged chunks become
// candidate segments merged into the per-document results.
func (d *Detector) similarityPhase(docs []Document, results [][]Segment) {
	var refs []chunkRef
	var texts []string
	for i, doc := range docs {
		for _, span := range d.segment(doc.Text) {
			if len(span.Text) < d.cfg.MinChunkChars {
				continue
			}
			refs = append(refs, chunkRef{docIdx: i, span: span})
			texts = append(texts, span.Text)
		}
	}
	if len(texts) < 2 {
		return
	}

	sims := d.cfg.Backend.Similarities(texts)

	// Per chunk: max observed similarity, number of similar partners, and
	// the set of documents that matched.
	for i, ref := range refs {
		maxSim := 0.0
		partners := 0
		matched := map[string]bool{docs[ref.docIdx].ContentID: true}
		for j, other := range refs {
			if i == j || other.docIdx == ref.docIdx {
				continue
			}
			if sims[i][j] >= d.cfg.SimilarityThreshold {
				partners++
				matched[docs[other.docIdx].ContentID] = true
				if sims[i][j] > maxSim {
					maxSim = sims[i][j]
				}
			}
		}
		if partners == 0 {
			continue
		}
		candidate := Segment{
			Text:        ref.span.Text,
			StartPos:    ref.span.Start,
			EndPos:      ref.span.End,
			Confidence:  maxSim,
			PatternType: "similarity_based",
			Category:    CategoryCrossDocument,
			Frequency:   partners + 1,
			DocumentIDs: matched,
		}
		results[ref.docIdx] = mergeCandidate(results[ref.docIdx], candidate)
	}
}

// mergeCandidate adds a similarity candidate to a document's segment list.
// Pattern segments are kept outright; the candidate is only appended when
// its confidence clears 0.5 and it does not overlap an existing segment by
// half or more — in the overlap case the existing segment absorbs the
// candidate's document set and takes the higher confidence.
func mergeCandidate(segments []Segment, candidate Segment) []Segment {
	if candidate.Confidence <= 0.5 {
		return segments
	}
	for i := range segments {
		if overlapRatio(segments[i].StartPos, segments[i].EndPos, candidate.StartPos, candidate.EndPos) >= 0.5 {
			for id := range candidate.DocumentIDs {
				segments[i].DocumentIDs[id] = true
			}
			if candidate.Confidence > segments[i].Confidence {
				segments[i].Confidence = candidate.Confidence
			}
			return segments
		}
	}
	return append(segments, candidate)
}

// overlapRatio returns the overlap of [as,ae) and [bs,be) relative to the
// smaller interval.
func overlapRatio(as, ae, bs, be int) float64 {
	lo, hi := as, ae
	if bs > lo {
		lo = bs
	}
	if be < hi {
		hi = be
	}
	if hi <= lo {
		return 0
	}
	shorter := ae - as
	if be-bs < shorter {
		shorter = be - bs
	}
	if shorter <= 0 {
		return 0
	}
	return float64(hi-lo) / float64(shorter)
}

// frequencyPhase groups segments by normalized text across documents and
// upgrades every instance of a text recurring in enough documents.
func (d *Detector) frequencyPhase(docs []Document, results [][]Segment) {
	type instance struct {
		docIdx int
		segIdx int
	}
	occurrences := make(map[string][]instance)
	inDocs := make(map[string]map[int]bool)

	for di, segs := range results {
		for si, seg := range segs {
			key := normalizeText(seg.Text)
			if key == "" {
				continue
			}
			occurrences[key] = append(occurrences[key], instance{di, si})
			if inDocs[key] == nil {
				inDocs[key] = make(map[int]bool)
			}
			inDocs[key][di] = true
		}
	}

	docCount := len(docs)
	threshold := int(d.cfg.FrequencyRatio * float64(docCount))
	if threshold < 2 {
		threshold = 2
	}

	for key, insts := range occurrences {
		if len(inDocs[key]) < threshold {
			continue
		}
		freq := len(insts)
		conf := float64(freq) / float64(docCount)
		if conf > 0.95 {
			conf = 0.95
		}
		for _, in := range insts {
			seg := &results[in.docIdx][in.segIdx]
			seg.Frequency = freq
			if conf > seg.Confidence {
				seg.Confidence = conf
			}
			if !strings.HasSuffix(seg.Category, "_frequent") {
				seg.Category += "_frequent"
			}
		}
	}
}

// normalizeText lowercases, collapses whitespace, and replaces digit runs
// with [NUM] and all-caps tokens with [CAPS] so that instance-specific
// values (dates, amounts, captions) group together.
func normalizeText(text string) string {
	var out []string
	for _, tok := range strings.Fields(text) {
		if isAllCaps(tok) {
			out = append(out, "[CAPS]")
			continue
		}
		out = append(out, replaceDigitRuns(strings.ToLower(tok)))
	}
	return strings.Join(out, " ")
}

func isAllCaps(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			letters++
		}
	}
	return letters >= 2
}

func replaceDigitRuns(tok string) string {
	var sb strings.Builder
	inRun := false
	for _, r := range tok {
		if unicode.IsDigit(r) {
			if !inRun {
				sb.WriteString("[NUM]")
				inRun = true
			}
			continue
		}
		sb.WriteRune(r)
		inRun = false
	}
	return sb.String()
}
