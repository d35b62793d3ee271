package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/legaldoc"
	"github.com/hazyhaar/lexpipe/ocrpipe"
	"github.com/hazyhaar/lexpipe/scrub"
	"github.com/hazyhaar/lexpipe/textqual"
)

func sampleResult() legaldoc.DocumentResult {
	return legaldoc.DocumentResult{
		DocumentID: "doc_test_1",
		Path:       "/data/raw/response.pdf",
		Success:    true,
		OCR: ocrpipe.Result{
			Success:          true,
			Method:           ocrpipe.MethodNative,
			Text:             "the cleaned discovery response text",
			ValidationStatus: textqual.StatusTextValidated,
			QualityScore:     0.87,
			Metrics: textqual.QualityMetrics{
				TextLength:       3200,
				AlphaRatio:       0.74,
				UniqueBigrams:    260,
				QualityScore:     0.87,
				ValidationStatus: textqual.StatusTextValidated,
			},
			Metadata: ocrpipe.Metadata{PageCount: 4},
			Stages: []ocrpipe.ProcessingStage{
				{Name: ocrpipe.StageValidateFile, Success: true, StartedAt: time.Now(), Duration: time.Millisecond},
				{Name: ocrpipe.StageOCRNecessity, Success: true, StartedAt: time.Now(), Detail: map[string]any{"ocr_needed": false}},
			},
		},
		Scrub: scrub.ProcessingResult{
			CleanedText: "the cleaned discovery response text",
			RemovedSegments: []boilerplate.Segment{
				{Text: "Responding Party objects to this request.", StartPos: 10, EndPos: 51,
					Category: boilerplate.CategoryStandardObjections, Confidence: 0.9},
				{Text: "Proof of service follows.", StartPos: 80, EndPos: 105,
					Category: boilerplate.CategoryProceduralLanguage, Confidence: 0.9},
			},
			Stats: scrub.ProcessingStats{SegmentsRemoved: 2, RemovedPercent: 12.5},
		},
	}
}

func TestSaveResult_RoundTrip(t *testing.T) {
	// WHAT: A saved result comes back through Document(), Events(), and
	// the segment aggregation with its fields intact.
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "run_1", sampleResult()); err != nil {
		t.Fatal(err)
	}

	row, err := s.Document(ctx, "doc_test_1")
	if err != nil {
		t.Fatal(err)
	}
	if row.ValidationStatus != string(textqual.StatusTextValidated) {
		t.Errorf("status = %q", row.ValidationStatus)
	}
	if row.QualityScore != 0.87 || row.PageCount != 4 || !row.Success {
		t.Errorf("row = %+v", row)
	}

	events, err := s.Events(ctx, "doc_test_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Stage != ocrpipe.StageValidateFile {
		t.Errorf("first event = %q, want stage order preserved", events[0].Stage)
	}
	if !strings.Contains(events[1].Detail, "ocr_needed") {
		t.Errorf("event detail = %q", events[1].Detail)
	}

	counts, err := s.SegmentCountByCategory(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[boilerplate.CategoryStandardObjections] != 1 || counts[boilerplate.CategoryProceduralLanguage] != 1 {
		t.Errorf("segment counts = %v", counts)
	}
}

func TestSaveResult_UpsertUpdatesDocument(t *testing.T) {
	// WHAT: Saving the same document twice updates the row instead of
	// failing on the primary key.
	// WHY: Re-runs after remediation are the normal operational flow.
	s := OpenMemory(t)
	ctx := context.Background()

	res := sampleResult()
	if err := s.SaveResult(ctx, "run_1", res); err != nil {
		t.Fatal(err)
	}
	res.OCR.ValidationStatus = textqual.StatusEntitiesExtracted
	res.OCR.QualityScore = 0.93
	if err := s.SaveResult(ctx, "run_2", res); err != nil {
		t.Fatal(err)
	}

	row, err := s.Document(ctx, res.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if row.ValidationStatus != string(textqual.StatusEntitiesExtracted) || row.QualityScore != 0.93 {
		t.Errorf("row after upsert = %+v", row)
	}
}

func TestListByStatus(t *testing.T) {
	// WHAT: Status filtering returns only matching documents.
	s := OpenMemory(t)
	ctx := context.Background()

	passed := sampleResult()
	if err := s.SaveResult(ctx, "run_1", passed); err != nil {
		t.Fatal(err)
	}
	failed := sampleResult()
	failed.DocumentID = "doc_test_2"
	failed.Success = false
	failed.OCR.ValidationStatus = textqual.StatusOCRDone
	failed.OCR.Metrics = textqual.QualityMetrics{}
	failed.Scrub = scrub.ProcessingResult{}
	if err := s.SaveResult(ctx, "run_1", failed); err != nil {
		t.Fatal(err)
	}

	rows, err := s.ListByStatus(ctx, string(textqual.StatusOCRDone), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "doc_test_2" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestExportMarkdown(t *testing.T) {
	// WHAT: The archive file carries YAML front matter followed by the
	// cleaned text, with a sanitized filename.
	dir := t.TempDir()
	path, err := ExportMarkdown(dir, sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "response_doc_test_1.md") {
		t.Errorf("archive path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		t.Error("missing front matter opener")
	}
	for _, want := range []string{"document_id: doc_test_1", "validation_status: TEXT_VALIDATED", "quality_score: 0.87", "the cleaned discovery response text"} {
		if !strings.Contains(content, want) {
			t.Errorf("archive missing %q:\n%s", want, content)
		}
	}
}

func TestExportMarkdown_RefusesFailedDocument(t *testing.T) {
	// WHAT: Failed documents are not archived; they belong in quarantine.
	res := sampleResult()
	res.Success = false
	if _, err := ExportMarkdown(t.TempDir(), res); err == nil {
		t.Fatal("expected error for failed document")
	}
}

func TestExportStored_RebuildsArchiveFromRows(t *testing.T) {
	// WHAT: A document persisted by SaveResult can be archived later from
	// the database alone, front matter and cleaned text included.
	// WHY: Operators re-export archives long after the pipeline run; the
	// database is the source of record, not the in-memory result.
	s := OpenMemory(t)
	ctx := context.Background()

	if err := s.SaveResult(ctx, "run_1", sampleResult()); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path, err := s.ExportStored(ctx, dir, "doc_test_1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(path, "response_doc_test_1.md") {
		t.Errorf("archive path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{"document_id: doc_test_1", "segments_removed: 2", "removed_percent: 12.5", "the cleaned discovery response text"} {
		if !strings.Contains(content, want) {
			t.Errorf("archive missing %q:\n%s", want, content)
		}
	}
}

func TestExportStored_RejectsUnsafeDocumentID(t *testing.T) {
	// WHAT: A document ID with path characters is refused before any
	// database or filesystem work.
	// WHY: IDs arrive as CLI arguments and become archive filenames.
	s := OpenMemory(t)
	for _, id := range []string{"../escape", "doc/with/slash", ""} {
		if _, err := s.ExportStored(context.Background(), t.TempDir(), id); err == nil {
			t.Errorf("ExportStored(%q) = nil error, want validation failure", id)
		}
	}
}

func TestExportStored_RefusesFailedDocument(t *testing.T) {
	// WHAT: Stored failures are refused the same way ExportMarkdown
	// refuses in-memory ones.
	s := OpenMemory(t)
	ctx := context.Background()

	res := sampleResult()
	res.Success = false
	res.Error = "quality gates failed"
	if err := s.SaveResult(ctx, "run_1", res); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ExportStored(ctx, t.TempDir(), res.DocumentID); err == nil {
		t.Fatal("expected error for failed document")
	}
}

func TestOpen_File(t *testing.T) {
	// WHAT: Open creates the database file with the schema applied.
	path := filepath.Join(t.TempDir(), "nested", "lexpipe.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var n int
	if err := s.DB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='documents'`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Error("documents table missing")
	}
}
