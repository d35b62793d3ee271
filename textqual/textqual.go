// CLAUDE:SUMMARY Scores OCR-extracted text against hard quality gates and computes a weighted composite score.
// Package textqual scores extracted text against hard numeric quality gates.
//
// The scorer applies six independent gates (length, alpha ratio, digit/punct
// noise, symbol ratio, bigram diversity, dictionary hit rate). Gates are
// intentionally hard rather than merged into one threshold: each targets a
// distinct OCR failure mode, and operators need to know which one fired to
// decide remediation (re-OCR vs reject vs manual review). A continuous
// composite score is computed alongside the gates for ranking and triage.
//
// Usage:
//
//	scorer := textqual.New(textqual.Config{})
//	m := scorer.Score(text, pageCount, entityCount)
//	if m.Passed() { ... }
package textqual

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
)

// Config holds gate thresholds and composite-score weights. The defaults are
// calibration values tuned against legal-document corpora; they do not
// necessarily generalize to other domains without recalibration.
type Config struct {
	// MinTextLength is the absolute length floor. A text shorter than this
	// still passes the length gate if it clears MinCharsPerPage.
	MinTextLength int `json:"min_text_length" yaml:"min_text_length"`
	// MinCharsPerPage is the per-page density floor (default: 300).
	MinCharsPerPage float64 `json:"min_chars_per_page" yaml:"min_chars_per_page"`
	// MinAlphaRatio is the minimum fraction of alphabetic characters.
	MinAlphaRatio float64 `json:"min_alpha_ratio" yaml:"min_alpha_ratio"`
	// MaxDigitPunctRatio is the maximum fraction of digits + punctuation.
	MaxDigitPunctRatio float64 `json:"max_digit_punct_ratio" yaml:"max_digit_punct_ratio"`
	// MaxSymbolRatio is the maximum fraction of symbol-class characters.
	MaxSymbolRatio float64 `json:"max_symbol_ratio" yaml:"max_symbol_ratio"`
	// MinUniqueBigrams is the minimum count of distinct alphabetic bigrams.
	MinUniqueBigrams int `json:"min_unique_bigrams" yaml:"min_unique_bigrams"`
	// MinDictHitRate is the minimum fraction of tokens found in the
	// reference word set.
	MinDictHitRate float64 `json:"min_dict_hit_rate" yaml:"min_dict_hit_rate"`
	// MinEntityDensity is the entities-per-KB floor required to advance a
	// document to ENTITIES_EXTRACTED.
	MinEntityDensity float64 `json:"min_entity_density" yaml:"min_entity_density"`

	// Weights for the composite score. Must be provided together; zero
	// values fall back to the calibration defaults.
	WeightAlpha   float64 `json:"weight_alpha" yaml:"weight_alpha"`
	WeightNoise   float64 `json:"weight_noise" yaml:"weight_noise"`
	WeightSymbol  float64 `json:"weight_symbol" yaml:"weight_symbol"`
	WeightBigram  float64 `json:"weight_bigram" yaml:"weight_bigram"`
	WeightEnglish float64 `json:"weight_english" yaml:"weight_english"`
	WeightLength  float64 `json:"weight_length" yaml:"weight_length"`

	// Words substitutes the reference word set for the dictionary gate.
	Words []string `json:"-" yaml:"-"`

	// DetectLanguage enables the lingua-go language-detection capability as
	// a supplementary signal on top of the fixed word set. Resolved once at
	// construction; off by default because model loading is expensive.
	DetectLanguage bool `json:"detect_language" yaml:"detect_language"`

	// Logger for debug messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MinTextLength <= 0 {
		c.MinTextLength = 1500
	}
	if c.MinCharsPerPage <= 0 {
		c.MinCharsPerPage = 300
	}
	if c.MinAlphaRatio <= 0 {
		c.MinAlphaRatio = 0.55
	}
	if c.MaxDigitPunctRatio <= 0 {
		c.MaxDigitPunctRatio = 0.35
	}
	if c.MaxSymbolRatio <= 0 {
		c.MaxSymbolRatio = 0.15
	}
	if c.MinUniqueBigrams <= 0 {
		c.MinUniqueBigrams = 200
	}
	if c.MinDictHitRate <= 0 {
		c.MinDictHitRate = 0.35
	}
	if c.MinEntityDensity <= 0 {
		c.MinEntityDensity = 0.3
	}
	if c.WeightAlpha <= 0 {
		c.WeightAlpha = 0.25
	}
	if c.WeightNoise <= 0 {
		c.WeightNoise = 0.15
	}
	if c.WeightSymbol <= 0 {
		c.WeightSymbol = 0.15
	}
	if c.WeightBigram <= 0 {
		c.WeightBigram = 0.15
	}
	if c.WeightEnglish <= 0 {
		c.WeightEnglish = 0.20
	}
	if c.WeightLength <= 0 {
		c.WeightLength = 0.10
	}
	if len(c.Words) == 0 {
		c.Words = referenceWords
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Scorer scores text blobs. Safe for concurrent use; all state is read-only
// after construction.
type Scorer struct {
	cfg     Config
	words   map[string]struct{}
	english englishDetector
	hasLang bool
	logger  *slog.Logger
}

// New creates a Scorer with the given configuration.
func New(cfg Config) *Scorer {
	cfg.defaults()
	words := make(map[string]struct{}, len(cfg.Words))
	for _, w := range cfg.Words {
		words[strings.ToLower(w)] = struct{}{}
	}
	s := &Scorer{
		cfg:    cfg,
		words:  words,
		logger: cfg.Logger,
	}
	if cfg.DetectLanguage {
		s.english = newLinguaDetector()
		s.hasLang = true
	}
	return s
}

var wordRe = regexp.MustCompile(`[a-zA-Z']+`)

// Score measures text against all gates and returns a fresh QualityMetrics.
// It never fails: empty or whitespace-only text yields a zero score with
// status OCR_DONE and a single "empty_text" failure reason.
func (s *Scorer) Score(text string, pageCount, entityCount int) QualityMetrics {
	if pageCount < 1 {
		pageCount = 1
	}
	if strings.TrimSpace(text) == "" {
		return QualityMetrics{
			ValidationStatus: StatusOCRDone,
			FailureReasons:   []string{"empty_text"},
		}
	}

	runes := []rune(text)
	length := len(runes)

	var alpha, digitPunct, symbol int
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			alpha++
		case unicode.IsDigit(r) || unicode.IsPunct(r):
			digitPunct++
		case unicode.IsSymbol(r):
			symbol++
		}
	}
	alphaRatio := float64(alpha) / float64(length)
	digitPunctRatio := float64(digitPunct) / float64(length)
	symbolRatio := float64(symbol) / float64(length)

	bigrams := countUniqueBigrams(text)

	tokens := wordRe.FindAllString(text, -1)
	hits := 0
	for _, tok := range tokens {
		if _, ok := s.words[strings.ToLower(tok)]; ok {
			hits++
		}
	}
	var dictRate float64
	if len(tokens) > 0 {
		dictRate = float64(hits) / float64(len(tokens))
	}

	charsPerPage := float64(length) / float64(pageCount)

	var reasons []string
	if length < s.cfg.MinTextLength && charsPerPage < s.cfg.MinCharsPerPage {
		reasons = append(reasons, fmt.Sprintf(
			"text_too_short: %d chars, %.0f chars/page (need %d chars or %.0f chars/page)",
			length, charsPerPage, s.cfg.MinTextLength, s.cfg.MinCharsPerPage))
	}
	if alphaRatio < s.cfg.MinAlphaRatio {
		reasons = append(reasons, fmt.Sprintf(
			"alpha_ratio_low: %.3f < %.2f", alphaRatio, s.cfg.MinAlphaRatio))
	}
	if digitPunctRatio > s.cfg.MaxDigitPunctRatio {
		reasons = append(reasons, fmt.Sprintf(
			"digit_punct_ratio_high: %.3f > %.2f", digitPunctRatio, s.cfg.MaxDigitPunctRatio))
	}
	if symbolRatio > s.cfg.MaxSymbolRatio {
		reasons = append(reasons, fmt.Sprintf(
			"symbol_ratio_high: %.3f > %.2f", symbolRatio, s.cfg.MaxSymbolRatio))
	}
	if bigrams < s.cfg.MinUniqueBigrams {
		reasons = append(reasons, fmt.Sprintf(
			"bigram_diversity_low: %d < %d", bigrams, s.cfg.MinUniqueBigrams))
	}
	if dictRate < s.cfg.MinDictHitRate {
		reasons = append(reasons, fmt.Sprintf(
			"english_hit_rate_low: %.3f < %.2f", dictRate, s.cfg.MinDictHitRate))
	}
	if s.hasLang && len(tokens) >= 20 {
		if conf := s.english.EnglishConfidence(text); conf < 0.5 {
			reasons = append(reasons, fmt.Sprintf(
				"language_confidence_low: %.3f < 0.50", conf))
		}
	}

	score := s.compositeScore(length, charsPerPage, alphaRatio, digitPunctRatio,
		symbolRatio, bigrams, dictRate)

	status, reasons := s.resolveStatus(reasons, length, entityCount)

	m := QualityMetrics{
		TextLength:       length,
		AlphaRatio:       alphaRatio,
		DigitPunctRatio:  digitPunctRatio,
		SymbolRatio:      symbolRatio,
		UniqueBigrams:    bigrams,
		EnglishDictHits:  hits,
		TotalWords:       len(tokens),
		CharsPerPage:     charsPerPage,
		QualityScore:     score,
		ValidationStatus: status,
		FailureReasons:   reasons,
	}
	s.logger.Debug("text scored",
		"length", length, "score", score, "status", status, "failures", len(reasons))
	return m
}

// compositeScore blends six sub-scores, each clamped to [0,1] against its
// gate threshold. Independent of the pass/fail gates; used for triage even
// when gates fail.
func (s *Scorer) compositeScore(length int, charsPerPage, alphaRatio, digitPunctRatio, symbolRatio float64, bigrams int, dictRate float64) float64 {
	lengthSub := clamp01(float64(length) / float64(s.cfg.MinTextLength))
	if byPage := clamp01(charsPerPage / s.cfg.MinCharsPerPage); byPage > lengthSub {
		lengthSub = byPage
	}
	alphaSub := clamp01(alphaRatio / s.cfg.MinAlphaRatio)
	noiseSub := 1 - clamp01(digitPunctRatio/s.cfg.MaxDigitPunctRatio)
	symbolSub := 1 - clamp01(symbolRatio/s.cfg.MaxSymbolRatio)
	bigramSub := clamp01(float64(bigrams) / float64(s.cfg.MinUniqueBigrams))
	englishSub := clamp01(dictRate / s.cfg.MinDictHitRate)

	return s.cfg.WeightAlpha*alphaSub +
		s.cfg.WeightNoise*noiseSub +
		s.cfg.WeightSymbol*symbolSub +
		s.cfg.WeightBigram*bigramSub +
		s.cfg.WeightEnglish*englishSub +
		s.cfg.WeightLength*lengthSub
}

// resolveStatus applies the status progression. Any gate failure pins the
// document at OCR_DONE. With all gates green, entity density decides whether
// the document advances past TEXT_VALIDATED; a low density is recorded as a
// failure reason but does not block the TEXT_VALIDATED transition.
func (s *Scorer) resolveStatus(reasons []string, length, entityCount int) (ValidationStatus, []string) {
	if len(reasons) > 0 {
		return StatusOCRDone, reasons
	}
	if entityCount > 0 {
		perKB := float64(entityCount) / (float64(length) / 1024.0)
		if perKB >= s.cfg.MinEntityDensity {
			return StatusEntitiesExtracted, reasons
		}
		reasons = append(reasons, fmt.Sprintf(
			"entity_density_low: %.3f/KB < %.2f/KB", perKB, s.cfg.MinEntityDensity))
		return StatusTextValidated, reasons
	}
	return StatusTextValidated, reasons
}

// countUniqueBigrams counts distinct two-letter substrings after collapsing
// whitespace runs and lowercasing. Genuine text has high bigram diversity;
// repeated-garbage OCR output has low diversity.
func countUniqueBigrams(text string) int {
	var sb strings.Builder
	prevSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				sb.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		sb.WriteRune(r)
		prevSpace = false
	}
	collapsed := []rune(sb.String())

	seen := make(map[[2]rune]struct{})
	for i := 0; i+1 < len(collapsed); i++ {
		a, b := collapsed[i], collapsed[i+1]
		if unicode.IsLetter(a) && unicode.IsLetter(b) {
			seen[[2]rune{a, b}] = struct{}{}
		}
	}
	return len(seen)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClassifyQuality buckets a composite score for human-facing triage.
// Independent of gate logic.
func ClassifyQuality(score float64) (string, string) {
	switch {
	case score >= 0.7:
		return "PASS", "text quality acceptable for downstream processing"
	case score >= 0.5:
		return "BORDERLINE", "text usable but should be flagged for review"
	default:
		return "FAIL", "text quality too low, re-OCR or manual review required"
	}
}
