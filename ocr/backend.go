// CLAUDE:SUMMARY OCR backend interface: per-word recognition with 0-100 confidences and page segmentation modes.
package ocr

import (
	"context"
	"image"
)

// PageSegMode mirrors the Tesseract page segmentation modes the engine
// actually uses.
type PageSegMode int

const (
	// PSMAuto lets the backend segment the page freely. The standard pass
	// default.
	PSMAuto PageSegMode = 3
	// PSMSingleBlock treats the page as one uniform text block. Used for
	// the enhanced pass, where pre-processing has already flattened layout.
	PSMSingleBlock PageSegMode = 6
)

// Word is one recognized token with its confidence on the backend's native
// 0-100 scale.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// RecognizeOptions parameterizes one recognition call.
type RecognizeOptions struct {
	PageSegMode PageSegMode
}

// Backend performs OCR on a single page image. Implementations live outside
// this package (see the tesseract package); tests inject fakes.
type Backend interface {
	Recognize(ctx context.Context, img image.Image, opts RecognizeOptions) ([]Word, error)
}
