package legaldoc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/ocrpipe"
	"github.com/hazyhaar/lexpipe/scrub"
	"github.com/hazyhaar/lexpipe/similarity"
)

const objectionSentence = "Responding Party objects to this request as vague, ambiguous, overly broad, and unduly burdensome."

// narratives are distinct per-document bodies so cross-document similarity
// only fires on the shared objection, not on the substance.
var narratives = map[string]string{
	"a.pdf": "The deposition of the site foreman established that the scaffolding inspection occurred on the morning before the collapse. Witnesses described the sequence of events in considerable detail, including the absence of warning signage near the eastern stairwell.",
	"b.pdf": "Plaintiff's expert reviewed the maintenance records for the crane and identified three missed service intervals during the preceding year. The metallurgical analysis of the failed coupling is attached as an exhibit to this response.",
}

// writeStubs creates placeholder PDF files that pass stage-1 validation; the
// injected native extractor supplies the actual text.
func writeStubs(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
		if err := os.WriteFile(paths[i], []byte("%PDF-1.7\nstub"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func stubExtractor(texts map[string]string) ocrpipe.NativeExtractor {
	return func(path string) ([]string, bool, error) {
		return []string{texts[filepath.Base(path)]}, false, nil
	}
}

func newTestProcessor(t *testing.T, texts map[string]string) *Processor {
	t.Helper()
	det, err := boilerplate.New(boilerplate.Config{
		Backend: similarity.NewTFIDF(similarity.Config{}),
		Segment: similarity.SplitSentences,
	})
	if err != nil {
		t.Fatal(err)
	}
	scr, err := scrub.New(scrub.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return New(Config{
		Coordinator: ocrpipe.New(ocrpipe.Config{NativeExtractor: stubExtractor(texts)}),
		Detector:    det,
		Scrubber:    scr,
	})
}

func TestProcessDocument_SingleDocRemovesPatternBoilerplate(t *testing.T) {
	// WHAT: A single document goes through OCR, detection, and scrubbing;
	// the pattern-matched objection is replaced with a placeholder while
	// the substantive narrative survives.
	texts := map[string]string{"a.pdf": objectionSentence + " " + narratives["a.pdf"]}
	p := newTestProcessor(t, texts)
	paths := writeStubs(t, "a.pdf")

	res := p.ProcessDocument(context.Background(), paths[0], ocrpipe.Options{})
	if !res.Success {
		t.Fatalf("success = false: %s", res.Error)
	}
	if !strings.HasPrefix(res.DocumentID, "doc_") {
		t.Errorf("document id = %q, want doc_ prefix", res.DocumentID)
	}
	if len(res.Segments) == 0 {
		t.Fatal("no segments detected")
	}
	if strings.Contains(res.Scrub.CleanedText, "objects to this request") {
		t.Errorf("objection survived scrubbing:\n%s", res.Scrub.CleanedText)
	}
	if !strings.Contains(res.Scrub.CleanedText, "scaffolding inspection") {
		t.Errorf("substantive narrative lost:\n%s", res.Scrub.CleanedText)
	}
	if !strings.Contains(res.Scrub.CleanedText, "REMOVED]") {
		t.Errorf("placeholder marker missing:\n%s", res.Scrub.CleanedText)
	}
}

func TestProcessDocument_OCRFailureIsCaptured(t *testing.T) {
	// WHAT: A missing file yields a failed DocumentResult carrying the
	// coordinator's error, with no detection or scrubbing attempted.
	p := newTestProcessor(t, nil)

	res := p.ProcessDocument(context.Background(), "/nonexistent/doc.pdf", ocrpipe.Options{})
	if res.Success {
		t.Fatal("success = true, want failure")
	}
	if res.Error == "" {
		t.Error("error string empty")
	}
	if len(res.Segments) != 0 {
		t.Errorf("segments = %d, want none for a failed document", len(res.Segments))
	}
}

func TestProcessBatch_CrossDocumentDetectionAndIsolation(t *testing.T) {
	// WHAT: Batch mode OCRs everything, detects once across the batch, and
	// scrubs each document; a missing third file fails alone without
	// aborting the other two.
	// WHY: The batch contract is N paths in, N results plus one aggregate
	// report out, never raising.
	texts := map[string]string{
		"a.pdf": objectionSentence + " " + narratives["a.pdf"],
		"b.pdf": objectionSentence + " " + narratives["b.pdf"],
	}
	p := newTestProcessor(t, texts)
	paths := writeStubs(t, "a.pdf", "b.pdf")
	paths = append(paths, filepath.Join(t.TempDir(), "missing.pdf"))

	batch := p.ProcessBatch(context.Background(), paths, ocrpipe.Options{})
	if len(batch.Documents) != 3 {
		t.Fatalf("documents = %d, want 3", len(batch.Documents))
	}
	if batch.Succeeded != 2 || batch.Failed != 1 {
		t.Errorf("succeeded=%d failed=%d, want 2/1", batch.Succeeded, batch.Failed)
	}
	if batch.Documents[2].Success || batch.Documents[2].Error == "" {
		t.Error("missing file should fail with an error string")
	}
	if batch.Detection.DocumentCount != 2 {
		t.Errorf("detection over %d documents, want 2", batch.Detection.DocumentCount)
	}

	for i := 0; i < 2; i++ {
		doc := batch.Documents[i]
		if !doc.Success {
			t.Fatalf("document %d failed: %s", i, doc.Error)
		}
		found := false
		for _, seg := range doc.Segments {
			if strings.HasPrefix(seg.Category, boilerplate.CategoryStandardObjections) {
				found = true
			}
		}
		if !found {
			t.Errorf("document %d: shared objection not detected", i)
		}
		if strings.Contains(doc.Scrub.CleanedText, "objects to this request") {
			t.Errorf("document %d: objection survived scrubbing", i)
		}
	}

	// The distinct narratives must survive in their own documents.
	if !strings.Contains(batch.Documents[0].Scrub.CleanedText, "scaffolding") {
		t.Error("document 0 narrative lost")
	}
	if !strings.Contains(batch.Documents[1].Scrub.CleanedText, "maintenance records") {
		t.Error("document 1 narrative lost")
	}
}

func TestProcessBatch_AllFailed(t *testing.T) {
	// WHAT: A batch of entirely missing files returns per-document
	// failures and zero-valued reports without calling the detector.
	p := newTestProcessor(t, nil)
	batch := p.ProcessBatch(context.Background(), []string{"/no/a.pdf", "/no/b.pdf"}, ocrpipe.Options{})
	if batch.Succeeded != 0 || batch.Failed != 2 {
		t.Errorf("succeeded=%d failed=%d, want 0/2", batch.Succeeded, batch.Failed)
	}
	if batch.Detection.SegmentCount != 0 {
		t.Errorf("detection report populated for an all-failed batch")
	}
}
