// CLAUDE:SUMMARY Tesseract OCR backend via gosseract, adapting word bounding boxes to the engine's Word type.
// Package tesseract adapts the Tesseract engine (through gosseract) to the
// ocr.Backend interface. Tesseract runs locally and free of charge, which is
// what a batch legal-discovery pipeline needs: page volume is high and the
// content cannot leave the machine.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/otiai10/gosseract/v2"

	"github.com/hazyhaar/lexpipe/ocr"
)

// Config for the Tesseract backend.
type Config struct {
	// Language is the trained-data language code (default "eng").
	Language string `json:"language" yaml:"language"`
	// TessdataPrefix overrides the trained-data directory when set.
	TessdataPrefix string `json:"tessdata_prefix" yaml:"tessdata_prefix"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Backend is an ocr.Backend backed by a local Tesseract installation.
//
// gosseract clients are not safe for concurrent use, so Recognize creates a
// client per call. Client setup is cheap next to recognition itself.
type Backend struct {
	cfg Config
	log *slog.Logger
}

// New builds a Tesseract backend.
func New(cfg Config) *Backend {
	cfg.defaults()
	return &Backend{cfg: cfg, log: cfg.Logger.With("component", "tesseract")}
}

// Recognize runs Tesseract on the image and returns word-level results with
// per-word confidences on Tesseract's native 0-100 scale.
func (b *Backend) Recognize(ctx context.Context, img image.Image, opts ocr.RecognizeOptions) ([]ocr.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("tesseract: encode page: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(b.cfg.Language); err != nil {
		return nil, fmt.Errorf("tesseract: set language %q: %w", b.cfg.Language, err)
	}
	if b.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(b.cfg.TessdataPrefix); err != nil {
			return nil, fmt.Errorf("tesseract: set tessdata prefix: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(opts.PageSegMode)); err != nil {
		return nil, fmt.Errorf("tesseract: set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("tesseract: set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract: recognize: %w", err)
	}

	words := make([]ocr.Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, ocr.Word{Text: box.Word, Confidence: box.Confidence})
	}
	b.log.Debug("page recognized", "words", len(words))
	return words, nil
}
