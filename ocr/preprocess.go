// CLAUDE:SUMMARY Enhanced-pass image pre-processing: deskew, denoise, adaptive threshold, morphological closing.
package ocr

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// preprocessResult carries the cleaned image plus the log of applied steps.
type preprocessResult struct {
	img   *image.Gray
	steps []string
}

// preprocess runs the enhanced-pass pipeline on a page image. Each step is
// recorded so the processing log shows exactly what the enhanced pass did.
func preprocess(img image.Image, minSkewDegrees float64) preprocessResult {
	gray := toGray(img)
	var steps []string

	skew := estimateSkew(gray)
	if math.Abs(skew) > minSkewDegrees {
		gray = rotate(gray, -skew)
		steps = append(steps, fmt.Sprintf("deskew: corrected %.2f°", skew))
	} else {
		steps = append(steps, fmt.Sprintf("deskew: skipped (%.2f° within tolerance)", skew))
	}

	gray = medianDenoise(gray)
	steps = append(steps, "denoise: 3x3 median filter")

	gray = adaptiveThreshold(gray, 15, 10)
	steps = append(steps, "threshold: adaptive local mean, window 15, offset 10")

	gray = morphClose(gray)
	steps = append(steps, "morphology: 3x3 closing")

	return preprocessResult{img: gray, steps: steps}
}

// estimateSkew finds the dominant near-horizontal text angle in degrees via
// a Hough accumulator over the edge map, sweeping ±5° in 0.25° steps.
func estimateSkew(gray *image.Gray) float64 {
	edges := sobelEdges(gray, 128)
	bounds := edges.Bounds()

	const (
		sweep = 5.0
		step  = 0.25
	)
	nAngles := int(2*sweep/step) + 1

	diag := int(math.Hypot(float64(bounds.Dx()), float64(bounds.Dy())))
	// accumulator[angle][rho+diag]
	acc := make([][]int, nAngles)
	for i := range acc {
		acc[i] = make([]int, 2*diag+1)
	}

	sin := make([]float64, nAngles)
	cos := make([]float64, nAngles)
	for i := 0; i < nAngles; i++ {
		// Angles near 90° detect horizontal lines; the offset from 90° is
		// the text skew.
		theta := (90 - sweep + float64(i)*step) * math.Pi / 180
		sin[i] = math.Sin(theta)
		cos[i] = math.Cos(theta)
	}

	// Sampling every third pixel keeps the accumulator cheap at 300 DPI
	// without losing the dominant line.
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 3 {
		for x := bounds.Min.X; x < bounds.Max.X; x += 3 {
			if edges.GrayAt(x, y).Y == 0 {
				continue
			}
			fx, fy := float64(x-bounds.Min.X), float64(y-bounds.Min.Y)
			for i := 0; i < nAngles; i++ {
				rho := int(fx*cos[i]+fy*sin[i]) + diag
				if rho >= 0 && rho < len(acc[i]) {
					acc[i][rho]++
				}
			}
		}
	}

	bestAngle, bestVotes := 0, 0
	for i := 0; i < nAngles; i++ {
		for _, votes := range acc[i] {
			if votes > bestVotes {
				bestVotes = votes
				bestAngle = i
			}
		}
	}
	if bestVotes < 10 {
		return 0
	}
	return -sweep + float64(bestAngle)*step
}

// rotate rotates the image around its center by angleDeg, filling exposed
// corners with white.
func rotate(gray *image.Gray, angleDeg float64) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	// White background so rotation does not introduce dark borders that
	// OCR would read as content.
	for i := range out.Pix {
		out.Pix[i] = 255
	}

	rad := angleDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	cx := float64(bounds.Min.X) + float64(bounds.Dx())/2
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())/2

	// Affine: translate center to origin, rotate, translate back.
	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	xdraw.BiLinear.Transform(out, m, gray, bounds, xdraw.Src, nil)
	return out
}

// medianDenoise applies a 3x3 median filter, the lightweight stand-in for
// heavier patch-based denoising. Removes salt-and-pepper scan noise while
// keeping stroke edges.
func medianDenoise(gray *image.Gray) *image.Gray {
	bounds := gray.Bounds()
	out := image.NewGray(bounds)
	copy(out.Pix, gray.Pix)

	var window [9]byte
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[k] = gray.GrayAt(x+dx, y+dy).Y
					k++
				}
			}
			out.SetGray(x, y, color.Gray{Y: median9(window)})
		}
	}
	return out
}

// median9 finds the median of 9 bytes with a partial insertion sort.
func median9(w [9]byte) byte {
	for i := 1; i < 9; i++ {
		v := w[i]
		j := i - 1
		for j >= 0 && w[j] > v {
			w[j+1] = w[j]
			j--
		}
		w[j+1] = v
	}
	return w[4]
}

// adaptiveThreshold binarizes using a local mean over a square window
// (integral-image accelerated) minus a constant offset. Robust against the
// uneven illumination typical of scanned paper.
func adaptiveThreshold(gray *image.Gray, window, offset int) *image.Gray {
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	if w == 0 || h == 0 {
		return out
	}

	// integral[y][x] = sum of pixels in [0,y)x[0,x).
	integral := make([][]int64, h+1)
	for i := range integral {
		integral[i] = make([]int64, w+1)
	}
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[y+1][x+1] = integral[y][x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := maxInt(0, y-half), minInt(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := maxInt(0, x-half), minInt(w-1, x+half)
			area := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			sum := integral[y1+1][x1+1] - integral[y0][x1+1] - integral[y1+1][x0] + integral[y0][x0]
			mean := sum / area
			v := int64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			if v > mean-int64(offset) {
				out.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// morphClose fills single-pixel holes in strokes and removes speckle:
// dilation of the dark foreground followed by erosion, both 3x3.
// Foreground is dark (0), background white (255), so closing the dark set
// means erode-then-dilate on the white set.
func morphClose(binary *image.Gray) *image.Gray {
	return dilateWhite(erodeWhite(binary))
}

func erodeWhite(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := byte(255)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					if p := img.GrayAt(px, py).Y; p < v {
						v = p
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

func dilateWhite(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := byte(0)
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					px, py := x+dx, y+dy
					if px < bounds.Min.X || px >= bounds.Max.X || py < bounds.Min.Y || py >= bounds.Max.Y {
						continue
					}
					if p := img.GrayAt(px, py).Y; p > v {
						v = p
					}
				}
			}
			out.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
