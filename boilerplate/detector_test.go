package boilerplate

import (
	"strings"
	"testing"

	"github.com/hazyhaar/lexpipe/similarity"
)

const objectionSentence = "Responding Party objects to this request on the grounds that it is burdensome, oppressive, and harassing in its entirety."

func newDetector(t *testing.T, cfg Config) *Detector {
	t.Helper()
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestDetect_EmptyInput(t *testing.T) {
	// WHAT: No documents yields an empty, non-nil result.
	// WHY: The batch contract returns one list per input, even for zero.
	d := newDetector(t, Config{})
	results := d.Detect(nil)
	if results == nil || len(results) != 0 {
		t.Errorf("Detect(nil) = %v, want empty slice", results)
	}
}

func TestPatternPhase_StandardObjection(t *testing.T) {
	// WHAT: The canonical objection sentence matches the fixed pattern table
	// with confidence 0.9 and a standard_objections pattern type.
	// WHY: Phase 1 flags known templates verbatim before any cross-document
	// analysis runs.
	d := newDetector(t, Config{})
	doc := Document{ContentID: "doc1", Text: "Preamble text.\n" + objectionSentence + "\nTrailing text."}
	segs := d.patternPhase(doc)
	if len(segs) == 0 {
		t.Fatal("no pattern segments found")
	}
	found := false
	for _, s := range segs {
		if s.Category == CategoryStandardObjections {
			found = true
			if s.Confidence != 0.9 {
				t.Errorf("confidence = %f, want 0.9", s.Confidence)
			}
			if !strings.HasPrefix(s.PatternType, "standard_objections_") {
				t.Errorf("pattern type = %q", s.PatternType)
			}
			if doc.Text[s.StartPos:s.EndPos] != s.Text {
				t.Errorf("segment offsets do not slice back to segment text")
			}
		}
	}
	if !found {
		t.Errorf("no standard_objections segment in %+v", segs)
	}
}

func TestDetect_ObjectionInBothDocuments(t *testing.T) {
	// WHAT: Two documents sharing the objection sentence each get a
	// standard_objections-rooted segment, upgraded by the frequency phase.
	// WHY: The same physical text recurring across the corpus must be flagged
	// in every document, and recurrence strengthens confidence.
	d := newDetector(t, Config{})
	docs := []Document{
		{ContentID: "a", Text: "Response One.\n" + objectionSentence},
		{ContentID: "b", Text: "Response Two.\n" + objectionSentence},
	}
	results := d.Detect(docs)
	if len(results) != 2 {
		t.Fatalf("got %d result lists, want 2", len(results))
	}
	for i, segs := range results {
		found := false
		for _, s := range segs {
			if strings.HasPrefix(s.Category, CategoryStandardObjections) {
				found = true
				if s.Confidence < 0.9 {
					t.Errorf("doc %d: confidence = %f, want >= 0.9", i, s.Confidence)
				}
				// Recurs in both documents: phase 3 marks it frequent.
				if !strings.HasSuffix(s.Category, "_frequent") {
					t.Errorf("doc %d: category = %q, want _frequent suffix", i, s.Category)
				}
				if s.Frequency < 2 {
					t.Errorf("doc %d: frequency = %d, want >= 2", i, s.Frequency)
				}
			}
		}
		if !found {
			t.Errorf("doc %d: no standard_objections segment", i)
		}
	}
}

func TestDetect_SimilarityPhase(t *testing.T) {
	// WHAT: Paragraphs repeated verbatim across documents, matching no fixed
	// pattern, are flagged by the similarity backend.
	// WHY: Phase 2 catches templated language outside the pattern library.
	shared := "All electronically stored information shall be produced in native format together with associated metadata fields preserved intact."
	docs := []Document{
		{ContentID: "a", Text: "Intro alpha paragraph with its own wording.\n\n" + shared},
		{ContentID: "b", Text: "Intro beta paragraph, also distinctive.\n\n" + shared},
	}
	d := newDetector(t, Config{
		Backend: similarity.NewTFIDF(similarity.Config{}),
		Segment: similarity.SplitSentences,
	})
	results := d.Detect(docs)
	for i, segs := range results {
		found := false
		for _, s := range segs {
			if s.PatternType == "similarity_based" && strings.Contains(s.Text, "native format") {
				found = true
				if s.Confidence < 0.85 {
					t.Errorf("doc %d: similarity confidence = %f, want >= threshold", i, s.Confidence)
				}
				if !s.DocumentIDs["a"] || !s.DocumentIDs["b"] {
					t.Errorf("doc %d: document ids = %v, want both a and b", i, s.DocumentIDs)
				}
			}
		}
		if !found {
			t.Errorf("doc %d: shared paragraph not flagged: %+v", i, segs)
		}
	}
}

func TestDetect_NoBackendDegrades(t *testing.T) {
	// WHAT: Without a similarity backend, detection still runs patterns and
	// frequency phases.
	// WHY: The backend is an optional capability; absence must degrade, not
	// fail.
	d := newDetector(t, Config{})
	docs := []Document{
		{ContentID: "a", Text: objectionSentence},
		{ContentID: "b", Text: objectionSentence},
	}
	results := d.Detect(docs)
	if len(results[0]) == 0 || len(results[1]) == 0 {
		t.Error("pattern phase should fire without a backend")
	}
}

func TestMergeCandidate_OverlapAbsorbed(t *testing.T) {
	// WHAT: A similarity candidate overlapping an existing segment by half or
	// more is absorbed: document ids union, max confidence, no new segment.
	// WHY: Overlap suppression prevents double-counting the same physical
	// text across phases.
	existing := []Segment{{
		Text: "shared text span", StartPos: 100, EndPos: 200,
		Confidence: 0.9, Category: CategoryStandardObjections,
		DocumentIDs: map[string]bool{"a": true},
	}}
	candidate := Segment{
		Text: "shared text span variant", StartPos: 120, EndPos: 220,
		Confidence: 0.95, PatternType: "similarity_based",
		DocumentIDs: map[string]bool{"a": true, "b": true},
	}
	merged := mergeCandidate(existing, candidate)
	if len(merged) != 1 {
		t.Fatalf("got %d segments, want 1 (absorbed)", len(merged))
	}
	if merged[0].Confidence != 0.95 {
		t.Errorf("confidence = %f, want max 0.95", merged[0].Confidence)
	}
	if !merged[0].DocumentIDs["b"] {
		t.Errorf("document ids not absorbed: %v", merged[0].DocumentIDs)
	}
}

func TestMergeCandidate_LowConfidenceDropped(t *testing.T) {
	// WHAT: Candidates at or below confidence 0.5 are not added.
	// WHY: Weak similarity matches add noise, not recall.
	merged := mergeCandidate(nil, Segment{Confidence: 0.5, StartPos: 0, EndPos: 50})
	if len(merged) != 0 {
		t.Errorf("low-confidence candidate was added: %+v", merged)
	}
}

func TestNormalizeText(t *testing.T) {
	// WHAT: Digits become [NUM], all-caps tokens become [CAPS], whitespace
	// collapses, case folds.
	// WHY: Normalization groups instance-specific variants of the same
	// boilerplate for frequency analysis.
	a := normalizeText("Case No. 2024CV12345 filed IN RE the matter")
	b := normalizeText("case   no. 2019CV99999 filed IN RE the matter")
	if a != b {
		t.Errorf("normalized forms differ:\n%q\n%q", a, b)
	}
	if !strings.Contains(a, "[NUM]") || !strings.Contains(a, "[CAPS]") {
		t.Errorf("normalized form missing placeholders: %q", a)
	}
}

func TestOverlapRatio(t *testing.T) {
	// WHAT: Overlap is measured against the shorter interval.
	// WHY: A small chunk fully inside a large segment is 100% overlapped.
	if r := overlapRatio(0, 100, 25, 50); r != 1.0 {
		t.Errorf("contained overlap = %f, want 1.0", r)
	}
	if r := overlapRatio(0, 100, 100, 200); r != 0 {
		t.Errorf("touching intervals overlap = %f, want 0", r)
	}
	if r := overlapRatio(0, 100, 50, 150); r != 0.5 {
		t.Errorf("half overlap = %f, want 0.5", r)
	}
}

func TestGenerateReport(t *testing.T) {
	// WHAT: The report aggregates counts, categories, top snippets, and the
	// confidence histogram.
	// WHY: Operators triage corpora from this summary, not raw segments.
	d := newDetector(t, Config{})
	docs := []Document{
		{ContentID: "a", Text: objectionSentence},
		{ContentID: "b", Text: objectionSentence},
	}
	lists := d.Detect(docs)
	report := d.GenerateReport(lists, docs)
	if report.DocumentCount != 2 {
		t.Errorf("document count = %d, want 2", report.DocumentCount)
	}
	if report.SegmentCount == 0 {
		t.Fatal("segment count = 0")
	}
	if report.HighConfidence == 0 {
		t.Error("expected high-confidence entries in histogram")
	}
	if len(report.TopFrequent) == 0 {
		t.Fatal("no top-frequent snippets")
	}
	if report.TopFrequent[0].Occurrences < 2 {
		t.Errorf("top snippet occurrences = %d, want >= 2", report.TopFrequent[0].Occurrences)
	}
}

func TestGenerateReport_SnippetTermsFromBackend(t *testing.T) {
	// WHAT: With a term-ranking backend configured, each top-frequent
	// snippet carries its highest-weighted vocabulary.
	// WHY: Operators reading the report should see what a snippet is about
	// without scanning 120 chars of truncated legalese.
	d := newDetector(t, Config{
		Backend: similarity.NewTFIDF(similarity.Config{}),
		Segment: similarity.SplitSentences,
	})
	docs := []Document{
		{ContentID: "a", Text: objectionSentence},
		{ContentID: "b", Text: objectionSentence},
	}
	lists := d.Detect(docs)
	report := d.GenerateReport(lists, docs)
	if len(report.TopFrequent) == 0 {
		t.Fatal("no top-frequent snippets")
	}
	for i, sc := range report.TopFrequent {
		if len(sc.Terms) == 0 {
			t.Errorf("snippet %d: no terms for %q", i, sc.Text)
		}
	}
}

func TestGenerateReport_NoBackendOmitsTerms(t *testing.T) {
	// WHAT: Without a backend the report still builds, terms omitted.
	d := newDetector(t, Config{})
	docs := []Document{{ContentID: "a", Text: objectionSentence}}
	report := d.GenerateReport(d.Detect(docs), docs)
	for _, sc := range report.TopFrequent {
		if sc.Terms != nil {
			t.Errorf("terms = %v, want nil without a backend", sc.Terms)
		}
	}
}

func TestNew_InvalidPattern(t *testing.T) {
	// WHAT: An invalid injected pattern fails construction.
	// WHY: Silently dropping patterns would erode recall without a trace.
	_, err := New(Config{Patterns: []CategoryPatterns{{Category: "bad", Patterns: []string{`([`}}}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}
