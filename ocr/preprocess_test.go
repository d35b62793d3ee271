package ocr

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestEstimateSkew_LevelPage(t *testing.T) {
	// WHAT: Horizontal text bars estimate near-zero skew, so the deskew
	// step is skipped within tolerance.
	skew := estimateSkew(renderedPage())
	if skew < -0.5 || skew > 0.5 {
		t.Errorf("skew = %f, want within ±0.5", skew)
	}

	res := preprocess(renderedPage(), 0.5)
	if len(res.steps) == 0 || !strings.Contains(res.steps[0], "skipped") {
		t.Errorf("steps = %v, want deskew skipped for a level page", res.steps)
	}
}

func TestMedian9(t *testing.T) {
	// WHAT: The 3x3 median kernel returns the middle value regardless of
	// input order.
	got := median9([9]byte{200, 0, 150, 50, 100, 250, 25, 175, 75})
	if got != 100 {
		t.Errorf("median = %d, want 100", got)
	}
}

func TestMedianDenoise_RemovesSaltNoise(t *testing.T) {
	// WHAT: An isolated dark pixel on a white field is removed by the
	// median filter.
	// WHY: Salt-and-pepper specks from scanning read as punctuation noise
	// downstream if they survive into the binarized image.
	img := image.NewGray(image.Rect(0, 0, 9, 9))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(4, 4, color.Gray{Y: 0})

	out := medianDenoise(img)
	if out.GrayAt(4, 4).Y != 255 {
		t.Errorf("speck survived: pixel = %d, want 255", out.GrayAt(4, 4).Y)
	}
}

func TestAdaptiveThreshold_Binarizes(t *testing.T) {
	// WHAT: Output contains only 0 and 255, dark strokes stay dark and
	// the background stays white.
	out := adaptiveThreshold(renderedPage(), 15, 10)
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := out.GrayAt(x, y).Y
			if v != 0 && v != 255 {
				t.Fatalf("pixel (%d,%d) = %d, want binary", x, y, v)
			}
		}
	}
	if out.GrayAt(100, 20).Y != 0 {
		t.Errorf("stroke pixel = %d, want 0", out.GrayAt(100, 20).Y)
	}
	if out.GrayAt(100, 10).Y != 255 {
		t.Errorf("background pixel = %d, want 255", out.GrayAt(100, 10).Y)
	}
}

func TestMorphClose_FillsPinholes(t *testing.T) {
	// WHAT: A single white pinhole inside a dark stroke is filled by
	// closing.
	img := image.NewGray(image.Rect(0, 0, 11, 11))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 4; y <= 6; y++ {
		for x := 1; x < 10; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	img.SetGray(5, 5, color.Gray{Y: 255})

	out := morphClose(img)
	if out.GrayAt(5, 5).Y != 0 {
		t.Errorf("pinhole survived closing: pixel = %d, want 0", out.GrayAt(5, 5).Y)
	}
}
