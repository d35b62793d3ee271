// CLAUDE:SUMMARY End-to-end legal document processing: OCR extraction, boilerplate detection, text scrubbing.
// Package legaldoc composes the extraction pipeline into single-document and
// batch operations.
//
// Batch mode is the interesting path: OCR runs first across every document,
// then boilerplate detection runs once over the whole batch so cross-document
// similarity and frequency analysis see all texts together, then each
// document's removal runs independently. One bad document never aborts the
// batch; its failure is captured on its own result.
package legaldoc

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/hazyhaar/lexpipe/boilerplate"
	"github.com/hazyhaar/lexpipe/idgen"
	"github.com/hazyhaar/lexpipe/ocrpipe"
	"github.com/hazyhaar/lexpipe/scrub"
	"github.com/hazyhaar/lexpipe/textqual"
)

// DocumentResult carries everything one document produced: the OCR
// diagnostics, the segments detected in it, and the scrub output.
type DocumentResult struct {
	DocumentID string                 `json:"document_id"`
	Path       string                 `json:"path"`
	Success    bool                   `json:"success"`
	Error      string                 `json:"error,omitempty"`
	OCR        ocrpipe.Result         `json:"ocr"`
	Segments   []boilerplate.Segment  `json:"segments,omitempty"`
	Scrub      scrub.ProcessingResult `json:"scrub,omitempty"`
}

// BatchResult aggregates a batch run.
type BatchResult struct {
	Documents []DocumentResult   `json:"documents"`
	Detection boilerplate.Report `json:"detection_report"`
	Scrubbing scrub.BatchReport  `json:"scrubbing_report"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
}

// Config for the processor.
type Config struct {
	// Coordinator extracts text from PDFs.
	Coordinator *ocrpipe.Coordinator
	// Detector finds boilerplate segments.
	Detector *boilerplate.Detector
	// Scrubber removes detected segments from text.
	Scrubber *scrub.Processor
	// Scorer backs the standalone scoring surface (MCP tool, CLI score
	// command). The coordinator carries its own scorer for stage 5.
	Scorer *textqual.Scorer
	// IDs generates document identifiers (default: "doc_"-prefixed UUIDv7).
	IDs idgen.Generator

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Scorer == nil {
		c.Scorer = textqual.New(textqual.Config{})
	}
	if c.IDs == nil {
		c.IDs = idgen.Prefixed("doc_", idgen.UUIDv7())
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Processor is the top-level pipeline entry point.
type Processor struct {
	cfg Config
	log *slog.Logger
}

// New builds a processor. Coordinator, detector and scrubber are required;
// they carry their own degradation logic for missing backends.
func New(cfg Config) *Processor {
	cfg.defaults()
	return &Processor{cfg: cfg, log: cfg.Logger.With("component", "legaldoc")}
}

// ProcessDocument runs the full pipeline on one PDF. Detection runs over a
// single-document "batch", so only the pattern and frequency phases can
// contribute; cross-document similarity needs ProcessBatch.
func (p *Processor) ProcessDocument(ctx context.Context, path string, opts ocrpipe.Options) DocumentResult {
	res := DocumentResult{
		DocumentID: p.cfg.IDs(),
		Path:       path,
	}

	res.OCR = p.cfg.Coordinator.ProcessPDF(ctx, path, opts)
	if !res.OCR.Success {
		res.Error = res.OCR.Error
		return res
	}

	doc := boilerplate.Document{
		ContentID: res.DocumentID,
		Text:      res.OCR.Text,
		Metadata:  p.docMetadata(res),
	}
	res.Segments = p.cfg.Detector.Detect([]boilerplate.Document{doc})[0]
	res.Scrub = p.cfg.Scrubber.Process(res.OCR.Text, res.Segments, doc.Metadata)
	res.Success = true

	p.log.Info("document processed",
		"document_id", res.DocumentID,
		"path", path,
		"segments", len(res.Segments),
		"removed_pct", res.Scrub.Stats.RemovedPercent)
	return res
}

// ProcessBatch runs OCR on every path, one cross-batch detection, then
// per-document scrubbing. Failed documents keep their slot in the output
// with Success=false; they are excluded from detection and the reports.
func (p *Processor) ProcessBatch(ctx context.Context, paths []string, opts ocrpipe.Options) BatchResult {
	batch := BatchResult{Documents: make([]DocumentResult, len(paths))}

	// Phase 1: OCR everything. Cross-document detection cannot start until
	// every text is available.
	var docs []boilerplate.Document
	var docIdx []int
	for i, path := range paths {
		res := DocumentResult{DocumentID: p.cfg.IDs(), Path: path}
		res.OCR = p.cfg.Coordinator.ProcessPDF(ctx, path, opts)
		if !res.OCR.Success {
			res.Error = res.OCR.Error
			batch.Documents[i] = res
			batch.Failed++
			p.log.Warn("batch document failed", "path", path, "error", res.Error)
			continue
		}
		docs = append(docs, boilerplate.Document{
			ContentID: res.DocumentID,
			Text:      res.OCR.Text,
			Metadata:  p.docMetadata(res),
		})
		docIdx = append(docIdx, i)
		batch.Documents[i] = res
	}

	if len(docs) == 0 {
		return batch
	}

	// Phase 2: one detection pass over the whole batch.
	segmentLists := p.cfg.Detector.Detect(docs)
	batch.Detection = p.cfg.Detector.GenerateReport(segmentLists, docs)

	// Phase 3: independent per-document removal.
	scrubResults := make([]scrub.ProcessingResult, 0, len(docs))
	for k, doc := range docs {
		i := docIdx[k]
		batch.Documents[i].Segments = segmentLists[k]
		batch.Documents[i].Scrub = p.cfg.Scrubber.Process(doc.Text, segmentLists[k], doc.Metadata)
		batch.Documents[i].Success = true
		batch.Succeeded++
		scrubResults = append(scrubResults, batch.Documents[i].Scrub)
	}
	batch.Scrubbing = scrub.GenerateReport(scrubResults)

	p.log.Info("batch processed",
		"documents", len(paths),
		"succeeded", batch.Succeeded,
		"failed", batch.Failed,
		"boilerplate_segments", batch.Detection.SegmentCount)
	return batch
}

func (p *Processor) docMetadata(res DocumentResult) map[string]string {
	return map[string]string{
		"document_id": res.DocumentID,
		"filename":    filepath.Base(res.Path),
		"method":      res.OCR.Method,
		"status":      string(res.OCR.ValidationStatus),
	}
}
