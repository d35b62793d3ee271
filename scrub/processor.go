// CLAUDE:SUMMARY Rewrites document text to remove detected boilerplate while never touching protected content.
// Package scrub removes detected boilerplate from legal document text.
//
// Preservation checks run before confidence filtering and are absolute: no
// confidence score overrides a protected range. A false-positive removal of
// a case number or dollar figure is a correctness failure with legal
// consequences, while a missed removal is a minor inefficiency — that
// asymmetry drives the preserve-first ordering and the extra important-term,
// dollar-amount, and deadline heuristics layered on top of the regex ranges.
package scrub

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/hazyhaar/lexpipe/boilerplate"
)

// Mode selects the replacement strategy for removed segments.
type Mode string

const (
	// ModeRemove replaces boilerplate with a single newline (or nothing
	// when structure preservation is off).
	ModeRemove Mode = "remove"
	// ModePlaceholder replaces boilerplate with a bracketed marker naming
	// the removed category. The default.
	ModePlaceholder Mode = "placeholder"
	// ModeSummary replaces boilerplate with a fixed one-line gist.
	ModeSummary Mode = "summary"
)

// ProcessingResult is the per-document outcome of boilerplate removal.
// Immutable once returned.
type ProcessingResult struct {
	OriginalText    string                  `json:"original_text"`
	CleanedText     string                  `json:"cleaned_text"`
	RemovedSegments []boilerplate.Segment   `json:"removed_segments"`
	Stats           ProcessingStats         `json:"processing_stats"`
	PreservationLog []string                `json:"preservation_log"`
}

// ProcessingStats summarizes one removal run.
type ProcessingStats struct {
	OriginalChars    int                      `json:"original_chars"`
	CleanedChars     int                      `json:"cleaned_chars"`
	RemovedChars     int                      `json:"removed_chars"`
	RemovedPercent   float64                  `json:"removed_percent"`
	CompressionRatio float64                  `json:"compression_ratio"`
	SegmentsRemoved  int                      `json:"segments_removed"`
	MeanConfidence   float64                  `json:"mean_confidence"`
	ByCategory       map[string]CategoryStats `json:"by_category"`
}

// CategoryStats is the per-category removal breakdown.
type CategoryStats struct {
	Count int `json:"count"`
	Chars int `json:"chars"`
}

// Config configures a Processor.
type Config struct {
	// ConfidenceThreshold is the minimum segment confidence for removal
	// (default: 0.7).
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// MinSegmentChars drops segments shorter than this (default: 20).
	MinSegmentChars int `json:"min_segment_chars" yaml:"min_segment_chars"`
	// Mode selects the replacement strategy (default: placeholder).
	Mode Mode `json:"mode" yaml:"mode"`
	// FlattenStructure collapses newlines in remove mode. The zero value
	// keeps them so page layout survives.
	FlattenStructure bool `json:"flatten_structure" yaml:"flatten_structure"`

	// Protections substitutes the protection pattern table (default:
	// DefaultProtectionPatterns).
	Protections []ProtectionPattern `json:"-" yaml:"-"`
	// ImportantTerms substitutes the important-term safety net.
	ImportantTerms []string `json:"-" yaml:"-"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = 0.7
	}
	if c.MinSegmentChars <= 0 {
		c.MinSegmentChars = 20
	}
	if c.Mode == "" {
		c.Mode = ModePlaceholder
	}
	if c.Protections == nil {
		c.Protections = DefaultProtectionPatterns()
	}
	if c.ImportantTerms == nil {
		c.ImportantTerms = defaultImportantTerms
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// defaultImportantTerms always block removal of a segment containing them,
// regardless of detection confidence.
var defaultImportantTerms = []string{
	"damages", "relief", "wherefore", "prayer", "verdict", "findings",
	"conclusions", "orders", "judgment", "settlement", "agreement",
	"stipulation",
}

var (
	dollarRe   = regexp.MustCompile(`\$\s?\d`)
	deadlineRe = regexp.MustCompile(`(?i)\b(?:by|before|within|deadline|due)\b\s+\S+\s*\d`)
)

// Processor rewrites documents. Pattern tables are compiled once at
// construction; read-only afterwards.
type Processor struct {
	cfg         Config
	protections []compiledProtection
	terms       []string
	logger      *slog.Logger
}

// New creates a Processor. It fails only on an invalid injected protection
// pattern.
func New(cfg Config) (*Processor, error) {
	cfg.defaults()
	protections, err := compileProtections(cfg.Protections)
	if err != nil {
		return nil, fmt.Errorf("scrub: compile protections: %w", err)
	}
	terms := make([]string, len(cfg.ImportantTerms))
	for i, t := range cfg.ImportantTerms {
		terms[i] = strings.ToLower(t)
	}
	return &Processor{
		cfg:         cfg,
		protections: protections,
		terms:       terms,
		logger:      cfg.Logger,
	}, nil
}

// Process removes qualifying boilerplate segments from text. Deterministic
// for identical inputs; never fails — an internal inconsistency produces a
// zero-removal result instead of an error.
func (p *Processor) Process(text string, segments []boilerplate.Segment, metadata map[string]string) ProcessingResult {
	preserved := preservedRanges(text, p.protections)

	var log []string
	var keep []boilerplate.Segment
	for _, seg := range segments {
		if reason, ok := p.vetoed(text, seg, preserved); ok {
			log = append(log, fmt.Sprintf("skip [%s] %s: %s",
				seg.Category, snippet(seg.Text), reason))
			continue
		}
		log = append(log, fmt.Sprintf("remove [%s] %s (confidence %.2f)",
			seg.Category, snippet(seg.Text), seg.Confidence))
		keep = append(keep, seg)
	}

	cleaned := p.applyRemovals(text, keep)
	cleaned = postProcess(cleaned)

	result := ProcessingResult{
		OriginalText:    text,
		CleanedText:     cleaned,
		RemovedSegments: keep,
		Stats:           computeStats(text, cleaned, keep),
		PreservationLog: log,
	}
	p.logger.Debug("document scrubbed",
		"original_chars", result.Stats.OriginalChars,
		"removed_chars", result.Stats.RemovedChars,
		"segments_removed", result.Stats.SegmentsRemoved)
	return result
}

// vetoed applies the removal filters in preservation-first order and
// returns a human-readable reason when the segment must be kept.
func (p *Processor) vetoed(text string, seg boilerplate.Segment, preserved []PreservedRange) (string, bool) {
	if seg.StartPos < 0 || seg.EndPos > len(text) || seg.StartPos >= seg.EndPos {
		return "invalid offsets", true
	}
	if r, ok := overlapsPreserved(seg.StartPos, seg.EndPos, preserved); ok {
		return fmt.Sprintf("overlaps preserved range [%s]", r.Category), true
	}
	if seg.Confidence < p.cfg.ConfidenceThreshold {
		return fmt.Sprintf("confidence %.2f below threshold %.2f",
			seg.Confidence, p.cfg.ConfidenceThreshold), true
	}
	if len(seg.Text) < p.cfg.MinSegmentChars {
		return fmt.Sprintf("shorter than %d chars", p.cfg.MinSegmentChars), true
	}
	lower := strings.ToLower(seg.Text)
	for _, term := range p.terms {
		if strings.Contains(lower, term) {
			return fmt.Sprintf("contains important term %q", term), true
		}
	}
	if dollarRe.MatchString(seg.Text) {
		return "contains dollar amount", true
	}
	if deadlineRe.MatchString(seg.Text) {
		return "contains deadline phrase", true
	}
	return "", false
}

// applyRemovals replaces surviving segments back-to-front so earlier
// offsets stay valid while the text mutates.
func (p *Processor) applyRemovals(text string, segments []boilerplate.Segment) string {
	ordered := make([]boilerplate.Segment, len(segments))
	copy(ordered, segments)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].StartPos > ordered[j].StartPos
	})

	for _, seg := range ordered {
		replacement := p.replacement(seg)
		text = text[:seg.StartPos] + replacement + text[seg.EndPos:]
	}
	return text
}

func (p *Processor) replacement(seg boilerplate.Segment) string {
	switch p.cfg.Mode {
	case ModeRemove:
		if p.cfg.FlattenStructure {
			return ""
		}
		return "\n"
	case ModeSummary:
		return "\n" + categorySummary(seg.Category) + "\n"
	default: // placeholder
		if isFormattingCategory(seg.Category) {
			return "\n"
		}
		return "\n[" + categoryLabel(seg.Category) + " REMOVED]\n"
	}
}

func isFormattingCategory(category string) bool {
	return strings.HasPrefix(category, boilerplate.CategoryFormattingElements)
}

// categoryLabel derives the placeholder label from a segment category,
// e.g. "standard_objections_frequent" → "STANDARD OBJECTIONS".
func categoryLabel(category string) string {
	category = strings.TrimSuffix(category, "_frequent")
	switch category {
	case boilerplate.CategoryCaseCitations:
		return "CASE CITATION"
	case boilerplate.CategoryCrossDocument:
		return "REPEATED CONTENT"
	default:
		return strings.ToUpper(strings.ReplaceAll(category, "_", " "))
	}
}

// categorySummary is the fixed one-line gist used in summary mode.
func categorySummary(category string) string {
	category = strings.TrimSuffix(category, "_frequent")
	switch category {
	case boilerplate.CategoryStandardObjections:
		return "[Standard legal objections regarding burden, privilege, and scope]"
	case boilerplate.CategoryDiscoveryResponses:
		return "[Standard discovery response language]"
	case boilerplate.CategoryCaseCitations:
		return "[Case citation]"
	case boilerplate.CategoryProceduralLanguage:
		return "[Procedural and service language]"
	case boilerplate.CategoryCrossDocument:
		return "[Content repeated across documents]"
	default:
		return "[Boilerplate removed]"
	}
}

var (
	excessNewlinesRe  = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe       = regexp.MustCompile(`[ \t]{2,}`)
	markerSpacingRe   = regexp.MustCompile(`[ \t]*(\n\[[A-Z][A-Z ]+ REMOVED\]\n)[ \t]*`)
	orphanLineNumRe   = regexp.MustCompile(`(?m)^\s*\d{1,2}\s*$\n?`)
)

// postProcess normalizes whitespace artifacts left behind by removal:
// collapsed newline runs, space runs, marker spacing, and orphaned
// standalone line-number lines.
func postProcess(text string) string {
	text = markerSpacingRe.ReplaceAllString(text, "$1")
	text = orphanLineNumRe.ReplaceAllString(text, "")
	text = excessNewlinesRe.ReplaceAllString(text, "\n\n")
	text = spaceRunsRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func computeStats(original, cleaned string, removed []boilerplate.Segment) ProcessingStats {
	stats := ProcessingStats{
		OriginalChars:   len(original),
		CleanedChars:    len(cleaned),
		SegmentsRemoved: len(removed),
		ByCategory:      make(map[string]CategoryStats),
	}
	var confSum float64
	for _, seg := range removed {
		chars := seg.EndPos - seg.StartPos
		stats.RemovedChars += chars
		confSum += seg.Confidence
		cs := stats.ByCategory[seg.Category]
		cs.Count++
		cs.Chars += chars
		stats.ByCategory[seg.Category] = cs
	}
	if len(removed) > 0 {
		stats.MeanConfidence = confSum / float64(len(removed))
	}
	if stats.OriginalChars > 0 {
		stats.RemovedPercent = 100 * float64(stats.RemovedChars) / float64(stats.OriginalChars)
		stats.CompressionRatio = float64(stats.CleanedChars) / float64(stats.OriginalChars)
	}
	return stats
}

func snippet(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return s
}
