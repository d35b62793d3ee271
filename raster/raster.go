// CLAUDE:SUMMARY Rasterizes PDF pages to images for OCR via go-fitz (MuPDF).
// Package raster renders PDF pages to images at OCR resolution.
package raster

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// Converter renders a PDF into per-page images.
type Converter interface {
	// Pages renders every page of the PDF at pdfPath, in order. Rendering
	// stops early when ctx is cancelled or MaxPages is reached.
	Pages(ctx context.Context, pdfPath string) ([]image.Image, error)
}

// Config for the MuPDF converter.
type Config struct {
	// DPI is the rendering resolution (default 300, the floor for reliable
	// Tesseract output on 10-12pt text).
	DPI float64 `json:"dpi" yaml:"dpi"`
	// MaxPages caps rendering; 0 means all pages.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// MuPDF is a Converter backed by go-fitz.
type MuPDF struct {
	cfg Config
	log *slog.Logger
}

// New builds a MuPDF converter.
func New(cfg Config) *MuPDF {
	cfg.defaults()
	return &MuPDF{cfg: cfg, log: cfg.Logger.With("component", "raster")}
}

// Pages implements Converter.
func (m *MuPDF) Pages(ctx context.Context, pdfPath string) ([]image.Image, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", pdfPath, err)
	}
	defer doc.Close()

	n := doc.NumPage()
	if m.cfg.MaxPages > 0 && n > m.cfg.MaxPages {
		m.log.Warn("page cap applied", "path", pdfPath, "pages", n, "cap", m.cfg.MaxPages)
		n = m.cfg.MaxPages
	}

	pages := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(i, m.cfg.DPI)
		if err != nil {
			return nil, fmt.Errorf("raster: render page %d of %s: %w", i+1, pdfPath, err)
		}
		pages = append(pages, img)
	}
	m.log.Debug("rasterized", "path", pdfPath, "pages", len(pages), "dpi", m.cfg.DPI)
	return pages, nil
}
