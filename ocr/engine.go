// CLAUDE:SUMMARY Dual-pass OCR engine: born-digital bypass, standard pass, enhanced pass with pre-processing.
// Package ocr extracts text from page images with a two-pass strategy.
//
// A page first goes through born-digital detection; pages that render like
// vector output skip OCR entirely. Otherwise a standard recognition pass
// runs, and only if its confidence or text quality falls short does the
// enhanced pass kick in: deskew, denoise, adaptive binarization and
// morphological closing before a second recognition with a lower word
// confidence floor. Every decision is appended to the page's processing
// log, and failure is reported as data on the result rather than as an
// error, so batch callers can keep going.
package ocr

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/hazyhaar/lexpipe/textqual"
)

// Outcome values for PageResult.Outcome.
const (
	OutcomeBornDigitalBypass = "born_digital_bypass"
	OutcomeStandardSuccess   = "standard_success"
	OutcomeEnhancedSuccess   = "enhanced_success"
	OutcomeFailed            = "failed"
)

// FailureType values describing why a page could not be extracted.
const (
	FailureNoBackend     = "no_ocr_backend"
	FailureRecognition   = "recognition_error"
	FailureLowConfidence = "low_confidence"
	FailureQualityGates  = "quality_gates"
	FailureEmptyResult   = "empty_result"
)

// PageResult is the outcome of extracting one page. Success=false carries a
// FailureType instead of an error: a bad page is data, not a pipeline fault.
type PageResult struct {
	Success    bool    `json:"success"`
	Outcome    string  `json:"outcome"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	// FailureType is set only when Success is false.
	FailureType string `json:"failure_type,omitempty"`
	// ProcessingLog records every pass and decision taken for the page.
	ProcessingLog []string `json:"processing_log"`
	// Signals from born-digital detection, populated for every page.
	Signals BornDigitalSignals `json:"signals"`
}

// Config for the engine.
type Config struct {
	// Backend performs the actual character recognition. Resolved once at
	// construction: a nil backend degrades the engine to born-digital
	// detection only.
	Backend Backend
	// Scorer validates extracted text before a pass is declared successful.
	// Nil means confidence alone decides.
	Scorer *textqual.Scorer
	// MinStandardConfidence is the mean word confidence (0..1) the standard
	// pass must reach to avoid the enhanced pass.
	MinStandardConfidence float64
	// WordConfidenceFloor drops words below this backend confidence (0..100)
	// in the standard pass.
	WordConfidenceFloor float64
	// EnhancedWordConfidenceFloor is the laxer floor for the enhanced pass.
	EnhancedWordConfidenceFloor float64
	// MinSkewDegrees is the deskew tolerance: smaller estimated angles are
	// not corrected.
	MinSkewDegrees float64

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MinStandardConfidence <= 0 {
		c.MinStandardConfidence = 0.6
	}
	if c.WordConfidenceFloor <= 0 {
		c.WordConfidenceFloor = 40
	}
	if c.EnhancedWordConfidenceFloor <= 0 {
		c.EnhancedWordConfidenceFloor = 30
	}
	if c.MinSkewDegrees <= 0 {
		c.MinSkewDegrees = 0.5
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs the dual-pass extraction.
type Engine struct {
	cfg        Config
	hasBackend bool
	log        *slog.Logger
}

// New builds an engine. The backend capability is resolved here, once.
func New(cfg Config) *Engine {
	cfg.defaults()
	return &Engine{
		cfg:        cfg,
		hasBackend: cfg.Backend != nil,
		log:        cfg.Logger.With("component", "ocr"),
	}
}

// ExtractPage extracts text from a single page image.
//
// Born-digital pages never reach the backend: the bypass is decided before
// any recognition call, and the caller is expected to pull text from the
// document's native layer instead.
func (e *Engine) ExtractPage(ctx context.Context, img image.Image) PageResult {
	res := PageResult{}

	res.Signals = DetectBornDigital(img)
	if res.Signals.IsBornDigital {
		res.Success = true
		res.Outcome = OutcomeBornDigitalBypass
		res.Confidence = 1.0
		res.ProcessingLog = append(res.ProcessingLog, fmt.Sprintf(
			"born-digital bypass: color=%.4f edge=%.4f regularity=%.2f",
			res.Signals.ColorRatio, res.Signals.EdgeDensity, res.Signals.LineRegularity))
		e.log.Debug("born-digital bypass", "color_ratio", res.Signals.ColorRatio)
		return res
	}
	res.ProcessingLog = append(res.ProcessingLog, "born-digital check: scanned page, OCR required")

	if !e.hasBackend {
		res.Outcome = OutcomeFailed
		res.FailureType = FailureNoBackend
		res.ProcessingLog = append(res.ProcessingLog, "no OCR backend configured")
		return res
	}

	// Standard pass on the raw image.
	stdText, stdConf, stdErr := e.recognize(ctx, img, RecognizeOptions{PageSegMode: PSMAuto}, e.cfg.WordConfidenceFloor)
	if stdErr != nil {
		res.ProcessingLog = append(res.ProcessingLog, "standard pass: "+stdErr.Error())
	} else {
		res.ProcessingLog = append(res.ProcessingLog, fmt.Sprintf(
			"standard pass: %d chars, confidence %.2f", len(stdText), stdConf))
		if stdConf >= e.cfg.MinStandardConfidence && e.textAcceptable(stdText) {
			res.Success = true
			res.Outcome = OutcomeStandardSuccess
			res.Text = stdText
			res.Confidence = stdConf
			return res
		}
		res.ProcessingLog = append(res.ProcessingLog, fmt.Sprintf(
			"standard pass rejected: confidence %.2f < %.2f or quality gates failed",
			stdConf, e.cfg.MinStandardConfidence))
	}

	// Enhanced pass: pre-process then recognize with the laxer floor and a
	// block segmentation mode that copes better with degraded scans.
	pre := preprocess(img, e.cfg.MinSkewDegrees)
	res.ProcessingLog = append(res.ProcessingLog, pre.steps...)

	text, conf, err := e.recognize(ctx, pre.img, RecognizeOptions{PageSegMode: PSMSingleBlock}, e.cfg.EnhancedWordConfidenceFloor)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.FailureType = FailureRecognition
		res.ProcessingLog = append(res.ProcessingLog, "enhanced pass: "+err.Error())
		e.log.Warn("enhanced pass recognition failed", "error", err)
		return res
	}
	res.ProcessingLog = append(res.ProcessingLog, fmt.Sprintf(
		"enhanced pass: %d chars, confidence %.2f", len(text), conf))

	// Final validation: take the better of the two passes, then check it.
	if stdErr == nil && stdConf > conf && stdText != "" {
		text, conf = stdText, stdConf
		res.ProcessingLog = append(res.ProcessingLog, "final: standard pass output retained (higher confidence)")
	}

	switch {
	case strings.TrimSpace(text) == "":
		res.Outcome = OutcomeFailed
		res.FailureType = FailureEmptyResult
		res.ProcessingLog = append(res.ProcessingLog, "final: no text recovered")
	case conf < e.cfg.MinStandardConfidence:
		res.Text = text
		res.Confidence = conf
		res.Outcome = OutcomeFailed
		res.FailureType = FailureLowConfidence
		res.ProcessingLog = append(res.ProcessingLog, fmt.Sprintf(
			"final: confidence %.2f below %.2f", conf, e.cfg.MinStandardConfidence))
	case !e.textAcceptable(text):
		res.Text = text
		res.Confidence = conf
		res.Outcome = OutcomeFailed
		res.FailureType = FailureQualityGates
		res.ProcessingLog = append(res.ProcessingLog, "final: text failed quality gates")
	default:
		res.Success = true
		res.Outcome = OutcomeEnhancedSuccess
		res.Text = text
		res.Confidence = conf
	}
	return res
}

// recognize calls the backend and assembles words above the confidence floor
// into text, returning the mean confidence normalized to 0..1.
func (e *Engine) recognize(ctx context.Context, img image.Image, opts RecognizeOptions, floor float64) (string, float64, error) {
	words, err := e.cfg.Backend.Recognize(ctx, img, opts)
	if err != nil {
		return "", 0, fmt.Errorf("recognize: %w", err)
	}
	var (
		b    strings.Builder
		sum  float64
		kept int
	)
	for _, w := range words {
		if w.Confidence < floor {
			continue
		}
		if kept > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w.Text)
		sum += w.Confidence
		kept++
	}
	if kept == 0 {
		return "", 0, nil
	}
	return b.String(), sum / float64(kept) / 100, nil
}

// textAcceptable runs the quality scorer on a single page's worth of text.
// The page-level check uses the per-page gates only; document-level length
// gates are deferred to the pipeline's final validation.
func (e *Engine) textAcceptable(text string) bool {
	if e.cfg.Scorer == nil {
		return strings.TrimSpace(text) != ""
	}
	m := e.cfg.Scorer.Score(text, 1, 0)
	for _, r := range m.FailureReasons {
		// Single pages legitimately run short of the document-level length
		// floor; only structural gates veto a pass here.
		if strings.HasPrefix(r, "text_too_short") || strings.HasPrefix(r, "entity_density_low") || strings.HasPrefix(r, "bigram_diversity_low") {
			continue
		}
		return false
	}
	return true
}
