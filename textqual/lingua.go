package textqual

import (
	"github.com/pemistahl/lingua-go"
)

// englishDetector is the optional language-detection capability. The lingua
// models are large, so construction happens once in New and only when
// Config.DetectLanguage is set.
type englishDetector interface {
	EnglishConfidence(text string) float64
}

type linguaDetector struct {
	detector lingua.LanguageDetector
}

func newLinguaDetector() englishDetector {
	// A small contrast set is enough: we only need "English vs not",
	// and fewer languages keeps model loading manageable.
	languages := []lingua.Language{
		lingua.English,
		lingua.Spanish,
		lingua.French,
		lingua.German,
	}
	return &linguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

func (d *linguaDetector) EnglishConfidence(text string) float64 {
	return d.detector.ComputeLanguageConfidence(text, lingua.English)
}
