// CLAUDE:SUMMARY QualityMetrics value object and ValidationStatus progression for OCR text scoring.
package textqual

// ValidationStatus tracks how far a document has advanced through the
// ingestion pipeline. Each scoring call recomputes the status fresh from the
// current text; there is no backward transition in the enum itself.
type ValidationStatus string

const (
	StatusIngested          ValidationStatus = "INGESTED"
	StatusOCRDone           ValidationStatus = "OCR_DONE"
	StatusTextValidated     ValidationStatus = "TEXT_VALIDATED"
	StatusEntitiesExtracted ValidationStatus = "ENTITIES_EXTRACTED"
)

// QualityMetrics is an immutable measurement of one text blob. Created once
// per scoring call.
type QualityMetrics struct {
	TextLength       int              `json:"text_length"`
	AlphaRatio       float64          `json:"alpha_ratio"`
	DigitPunctRatio  float64          `json:"digit_punct_ratio"`
	SymbolRatio      float64          `json:"symbol_ratio"`
	UniqueBigrams    int              `json:"unique_bigrams"`
	EnglishDictHits  int              `json:"english_dict_hits"`
	TotalWords       int              `json:"total_words"`
	CharsPerPage     float64          `json:"chars_per_page"`
	QualityScore     float64          `json:"quality_score"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	FailureReasons   []string         `json:"failure_reasons"`
}

// Passed reports whether all hard quality gates passed.
func (m *QualityMetrics) Passed() bool {
	return len(m.FailureReasons) == 0
}
