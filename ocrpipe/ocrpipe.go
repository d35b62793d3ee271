// CLAUDE:SUMMARY Five-stage OCR coordinator: validate, necessity check, rasterize, per-page OCR, final scoring.
// Package ocrpipe orchestrates the per-PDF extraction pipeline.
//
// Five stages run in order, fail-fast: file validation, OCR-necessity check,
// rasterization, per-page OCR, final quality validation. Every stage is
// timestamped into the result's Stages trail whether the run succeeds or
// not, because OCR failures are rarely obvious from the final error alone.
// The package boundary never returns a Go error for a bad document: a
// failure is a Result with Success=false and a descriptive Error string, so
// batch callers keep going.
package ocrpipe

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/lexpipe/ocr"
	"github.com/hazyhaar/lexpipe/raster"
	"github.com/hazyhaar/lexpipe/textqual"
)

// Extraction methods reported on Result.Method.
const (
	MethodNative = "native_extraction"
	MethodOCR    = "enhanced_ocr"
)

// Stage names, in pipeline order.
const (
	StageValidateFile    = "file_validation"
	StageOCRNecessity    = "ocr_necessity"
	StageRasterize       = "rasterization"
	StagePageOCR         = "page_ocr"
	StageFinalValidation = "final_validation"
)

// ProcessingStage is one timestamped entry in the diagnostic trail.
type ProcessingStage struct {
	Name      string         `json:"name"`
	Success   bool           `json:"success"`
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Detail    map[string]any `json:"detail,omitempty"`
}

// Metadata summarizes the run for downstream storage.
type Metadata struct {
	Path           string  `json:"path"`
	FileBytes      int64   `json:"file_bytes"`
	PageCount      int     `json:"page_count"`
	PagesExtracted int     `json:"pages_extracted"`
	PagesFailed    int     `json:"pages_failed"`
	MeanConfidence float64 `json:"mean_confidence"`
}

// Result is the structured outcome of one document. Error is a description,
// not a Go error: bad documents are data.
type Result struct {
	Success          bool                      `json:"success"`
	Method           string                    `json:"method,omitempty"`
	Text             string                    `json:"text,omitempty"`
	ValidationStatus textqual.ValidationStatus `json:"validation_status,omitempty"`
	QualityScore     float64                   `json:"quality_score"`
	Metrics          textqual.QualityMetrics   `json:"metrics"`
	Error            string                    `json:"error,omitempty"`
	Metadata         Metadata                  `json:"pipeline_metadata"`
	Stages           []ProcessingStage         `json:"processing_stages"`
}

// Options tune a single ProcessPDF call.
type Options struct {
	// ForceOCR skips the native-text bypass even when the document has a
	// usable text layer.
	ForceOCR bool
	// SkipQualityGates accepts whatever text was extracted without running
	// the final scoring stage.
	SkipQualityGates bool
}

// NativeExtractor reads a document's native text layer, one string per
// page, and reports whether the document embeds image streams.
type NativeExtractor func(path string) (pages []string, hasImages bool, err error)

// Config for the coordinator.
type Config struct {
	// Converter rasterizes PDFs for the OCR path.
	Converter raster.Converter
	// NativeExtractor overrides the pdfcpu content-stream reader. Useful
	// for tests and for formats with their own text-layer access.
	NativeExtractor NativeExtractor
	// Engine performs per-page dual-pass extraction.
	Engine *ocr.Engine
	// Scorer runs the final quality validation.
	Scorer *textqual.Scorer
	// MaxFileBytes is the size ceiling for stage 1 (default 200 MiB).
	MaxFileBytes int64
	// MinNativeCharsPerPage is the native text-layer density above which the
	// document bypasses OCR entirely (default 200).
	MinNativeCharsPerPage float64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxFileBytes <= 0 {
		c.MaxFileBytes = 200 << 20
	}
	if c.MinNativeCharsPerPage <= 0 {
		c.MinNativeCharsPerPage = 200
	}
	if c.Scorer == nil {
		c.Scorer = textqual.New(textqual.Config{})
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Coordinator runs the five-stage pipeline.
type Coordinator struct {
	cfg          Config
	hasConverter bool
	hasEngine    bool
	log          *slog.Logger

	// extractNative is swappable for tests; production uses the pdfcpu
	// content-stream extractor.
	extractNative func(path string) (nativeLayer, error)
}

// New builds a coordinator. Converter and engine capabilities are resolved
// here: without them the coordinator can still serve born-digital documents
// through the native path.
func New(cfg Config) *Coordinator {
	cfg.defaults()
	c := &Coordinator{
		cfg:           cfg,
		hasConverter:  cfg.Converter != nil,
		hasEngine:     cfg.Engine != nil,
		log:           cfg.Logger.With("component", "ocrpipe"),
		extractNative: extractNativeLayer,
	}
	if cfg.NativeExtractor != nil {
		c.extractNative = func(path string) (nativeLayer, error) {
			pages, hasImages, err := cfg.NativeExtractor(path)
			return nativeLayer{pages: pages, pageCount: len(pages), hasImages: hasImages}, err
		}
	}
	return c
}

// ProcessPDF runs the full pipeline on one document.
func (c *Coordinator) ProcessPDF(ctx context.Context, path string, opts Options) Result {
	res := Result{ValidationStatus: textqual.StatusIngested}

	// Stage 1: file validation.
	stage := c.begin(StageValidateFile)
	size, reason := c.validateFile(path)
	res.Metadata.Path = path
	res.Metadata.FileBytes = size
	if reason != "" {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": reason}))
		return c.fail(res, reason)
	}
	res.Stages = append(res.Stages, stage.done(true, map[string]any{"file_bytes": size}))

	// Stage 2: OCR-necessity check against the native text layer.
	stage = c.begin(StageOCRNecessity)
	layer, err := c.extractNative(path)
	if err != nil {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": err.Error()}))
		return c.fail(res, fmt.Sprintf("native layer unreadable: %v", err))
	}
	res.Metadata.PageCount = layer.pageCount
	density := layer.charsPerPage()
	bypass := !opts.ForceOCR && density >= c.cfg.MinNativeCharsPerPage
	res.Stages = append(res.Stages, stage.done(true, map[string]any{
		"chars_per_page": density,
		"has_images":     layer.hasImages,
		"ocr_needed":     !bypass,
	}))
	if bypass {
		res.Method = MethodNative
		res.Text = joinPages(layer.pages)
		res.Metadata.PagesExtracted = layer.pageCount
		res.Metadata.MeanConfidence = 1.0
		c.log.Info("native bypass", "path", path, "chars_per_page", density)
		return c.finalize(res, layer.pageCount, opts)
	}

	// Stage 3: rasterization.
	stage = c.begin(StageRasterize)
	if !c.hasConverter {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": "no converter configured"}))
		return c.fail(res, "document requires OCR but no rasterizer is configured")
	}
	images, err := c.cfg.Converter.Pages(ctx, path)
	if err != nil {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": err.Error()}))
		return c.fail(res, fmt.Sprintf("rasterization failed: %v", err))
	}
	if len(images) == 0 {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": "zero pages rendered"}))
		return c.fail(res, "rasterization produced no pages")
	}
	res.Stages = append(res.Stages, stage.done(true, map[string]any{"pages": len(images)}))
	if res.Metadata.PageCount == 0 {
		res.Metadata.PageCount = len(images)
	}

	// Stage 4: per-page OCR.
	stage = c.begin(StagePageOCR)
	if !c.hasEngine {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": "no OCR engine configured"}))
		return c.fail(res, "document requires OCR but no engine is configured")
	}
	texts, meta, pageDetail := c.ocrPages(ctx, images, layer)
	res.Metadata.PagesExtracted = meta.PagesExtracted
	res.Metadata.PagesFailed = meta.PagesFailed
	res.Metadata.MeanConfidence = meta.MeanConfidence
	if meta.PagesExtracted == 0 {
		res.Stages = append(res.Stages, stage.done(false, pageDetail))
		return c.fail(res, "OCR extracted no text from any page")
	}
	res.Stages = append(res.Stages, stage.done(true, pageDetail))
	res.Method = MethodOCR
	res.Text = joinPages(texts)

	return c.finalize(res, len(images), opts)
}

// finalize runs stage 5 and settles the result.
func (c *Coordinator) finalize(res Result, pageCount int, opts Options) Result {
	stage := c.begin(StageFinalValidation)
	if strings.TrimSpace(res.Text) == "" {
		res.Stages = append(res.Stages, stage.done(false, map[string]any{"reason": "empty text"}))
		return c.fail(res, "extraction produced empty text")
	}
	if opts.SkipQualityGates {
		res.Stages = append(res.Stages, stage.done(true, map[string]any{"gates": "skipped"}))
		res.Success = true
		res.ValidationStatus = textqual.StatusTextValidated
		return res
	}

	m := c.cfg.Scorer.Score(res.Text, pageCount, 0)
	res.Metrics = m
	res.QualityScore = m.QualityScore
	res.ValidationStatus = m.ValidationStatus
	res.Stages = append(res.Stages, stage.done(true, map[string]any{
		"quality_score":     m.QualityScore,
		"validation_status": string(m.ValidationStatus),
		"failure_reasons":   m.FailureReasons,
	}))
	// Gate failures are a successful computation, not an error: callers
	// read ValidationStatus to decide remediation.
	res.Success = true
	c.log.Info("document processed",
		"path", res.Metadata.Path,
		"method", res.Method,
		"status", string(res.ValidationStatus),
		"score", m.QualityScore)
	return res
}

// ocrPages runs the engine over every page. A page the engine flags as
// born-digital carries no OCR text; its native-layer text fills the slot
// instead, so mixed documents (scanned exhibits stapled to digital filings)
// come out whole.
func (c *Coordinator) ocrPages(ctx context.Context, images []image.Image, layer nativeLayer) ([]string, Metadata, map[string]any) {
	texts := make([]string, len(images))
	outcomes := make([]string, len(images))
	var meta Metadata
	var confSum, confWeight float64

	for i, img := range images {
		pr := c.cfg.Engine.ExtractPage(ctx, img)
		outcomes[i] = pr.Outcome
		if !pr.Success {
			meta.PagesFailed++
			c.log.Warn("page failed", "page", i+1, "failure_type", pr.FailureType)
			continue
		}
		text := pr.Text
		if pr.Outcome == ocr.OutcomeBornDigitalBypass && i < len(layer.pages) {
			text = layer.pages[i]
		}
		texts[i] = text
		meta.PagesExtracted++
		w := float64(len([]rune(text)))
		if w == 0 {
			w = 1
		}
		confSum += pr.Confidence * w
		confWeight += w
	}
	if confWeight > 0 {
		meta.MeanConfidence = confSum / confWeight
	}
	detail := map[string]any{
		"pages_extracted": meta.PagesExtracted,
		"pages_failed":    meta.PagesFailed,
		"mean_confidence": meta.MeanConfidence,
		"page_outcomes":   outcomes,
	}
	return texts, meta, detail
}

func (c *Coordinator) validateFile(path string) (int64, string) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Sprintf("file not accessible: %v", err)
	}
	if info.IsDir() {
		return 0, "path is a directory"
	}
	if info.Size() > c.cfg.MaxFileBytes {
		return info.Size(), fmt.Sprintf("file size %d exceeds ceiling %d", info.Size(), c.cfg.MaxFileBytes)
	}
	f, err := os.Open(path)
	if err != nil {
		return info.Size(), fmt.Sprintf("file not readable: %v", err)
	}
	defer f.Close()
	magic := make([]byte, 5)
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != "%PDF-" {
		return info.Size(), "not a PDF: missing %PDF- header"
	}
	return info.Size(), ""
}

func (c *Coordinator) fail(res Result, reason string) Result {
	res.Success = false
	res.Error = reason
	if res.ValidationStatus == "" {
		res.ValidationStatus = textqual.StatusIngested
	}
	c.log.Warn("document failed", "path", res.Metadata.Path, "error", reason)
	return res
}

type stageTimer struct {
	name  string
	start time.Time
}

func (c *Coordinator) begin(name string) stageTimer {
	return stageTimer{name: name, start: time.Now()}
}

func (s stageTimer) done(success bool, detail map[string]any) ProcessingStage {
	return ProcessingStage{
		Name:      s.name,
		Success:   success,
		StartedAt: s.start,
		Duration:  time.Since(s.start),
		Detail:    detail,
	}
}

// joinPages concatenates page texts with a blank line, skipping empties.
func joinPages(pages []string) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "\n\n")
}
