// CLAUDE:SUMMARY Born-digital page detection from image-level signals: color count, edge density, line regularity.
package ocr

import (
	"image"
	"image/color"
	"math"
)

// BornDigitalSignals carries the three image-level measurements behind the
// born-digital decision, kept for diagnostics.
type BornDigitalSignals struct {
	ColorRatio     float64 `json:"color_ratio"`
	EdgeDensity    float64 `json:"edge_density"`
	LineRegularity float64 `json:"line_regularity"`
	IsBornDigital  bool    `json:"is_born_digital"`
}

// Detection thresholds. All three signals must agree: digitally rendered
// text has very few distinct colors, crisp edges, and evenly spaced text
// lines. Scanned pages fail at least one.
const (
	maxBornDigitalColorRatio  = 0.01
	minBornDigitalEdgeDensity = 0.02
	minBornDigitalRegularity  = 0.7
)

// DetectBornDigital classifies a rasterized page. It is a fast-path
// optimization: a born-digital page has a genuine text layer and skips OCR
// entirely in favor of native extraction.
func DetectBornDigital(img image.Image) BornDigitalSignals {
	gray := toGray(img)
	bounds := gray.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return BornDigitalSignals{}
	}

	sig := BornDigitalSignals{
		ColorRatio:  uniqueColorRatio(img),
		EdgeDensity: edgeDensity(gray),
	}
	sig.LineRegularity = lineRegularity(gray)
	sig.IsBornDigital = sig.ColorRatio < maxBornDigitalColorRatio &&
		sig.EdgeDensity > minBornDigitalEdgeDensity &&
		sig.LineRegularity > minBornDigitalRegularity
	return sig
}

// uniqueColorRatio counts distinct 8-bit RGB values relative to pixel count.
func uniqueColorRatio(img image.Image) float64 {
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	seen := make(map[uint32]struct{})
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			key := (r>>8)<<16 | (g>>8)<<8 | b>>8
			seen[key] = struct{}{}
		}
	}
	return float64(len(seen)) / float64(total)
}

// edgeDensity is the fraction of pixels whose Sobel gradient magnitude
// exceeds a fixed threshold.
func edgeDensity(gray *image.Gray) float64 {
	edges := sobelEdges(gray, 128)
	bounds := edges.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}
	count := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if edges.GrayAt(x, y).Y > 0 {
				count++
			}
		}
	}
	return float64(count) / float64(total)
}

// sobelEdges returns a binary edge map: 255 where the gradient magnitude
// exceeds threshold, 0 elsewhere.
func sobelEdges(gray *image.Gray, threshold float64) *image.Gray {
	bounds := gray.Bounds()
	edges := image.NewGray(bounds)
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			gx := -int(gray.GrayAt(x-1, y-1).Y) + int(gray.GrayAt(x+1, y-1).Y) +
				-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
				-int(gray.GrayAt(x-1, y+1).Y) + int(gray.GrayAt(x+1, y+1).Y)
			gy := -int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - int(gray.GrayAt(x+1, y-1).Y) +
				int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + int(gray.GrayAt(x+1, y+1).Y)
			if math.Hypot(float64(gx), float64(gy)) > threshold {
				edges.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return edges
}

// lineRegularity measures peak-spacing uniformity in the horizontal
// projection of edge pixels. Evenly spaced text lines yield a regularity
// near 1; sparse or skewed content yields lower values.
func lineRegularity(gray *image.Gray) float64 {
	edges := sobelEdges(gray, 128)
	bounds := edges.Bounds()
	height := bounds.Dy()
	if height == 0 {
		return 0
	}

	projection := make([]int, height)
	for y := 0; y < height; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if edges.GrayAt(x, bounds.Min.Y+y).Y > 0 {
				projection[y]++
			}
		}
	}

	mean := 0.0
	for _, v := range projection {
		mean += float64(v)
	}
	mean /= float64(height)
	if mean == 0 {
		return 0
	}

	// Peaks are maxima of above-mean runs; their spacing uniformity is
	// 1 minus the coefficient of variation of successive gaps.
	var peaks []int
	runStart := -1
	best, bestAt := 0, -1
	for y := 0; y <= height; y++ {
		above := y < height && float64(projection[y]) > mean
		if above {
			if runStart < 0 {
				runStart = y
				best, bestAt = projection[y], y
			} else if projection[y] > best {
				best, bestAt = projection[y], y
			}
			continue
		}
		if runStart >= 0 {
			peaks = append(peaks, bestAt)
			runStart = -1
		}
	}
	if len(peaks) < 3 {
		return 0
	}

	gaps := make([]float64, 0, len(peaks)-1)
	var gapMean float64
	for i := 1; i < len(peaks); i++ {
		g := float64(peaks[i] - peaks[i-1])
		gaps = append(gaps, g)
		gapMean += g
	}
	gapMean /= float64(len(gaps))
	if gapMean == 0 {
		return 0
	}
	var variance float64
	for _, g := range gaps {
		variance += (g - gapMean) * (g - gapMean)
	}
	variance /= float64(len(gaps))
	cv := math.Sqrt(variance) / gapMean

	reg := 1 - cv
	if reg < 0 {
		reg = 0
	}
	return reg
}

// toGray converts any image to 8-bit grayscale, reusing the input when it
// already is one.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
