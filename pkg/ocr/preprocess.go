package ocr

import (
	"image"
	"image/color"
	"log"

	"github.com/disintegration/imaging"
)

// blurSigma is the fixed smoothing kernel applied before thresholding.
const blurSigma = 1.0

// Preprocess normalizes a decoded bitmap for text recognition: grayscale,
// noise-reducing blur, Otsu binarization, then a minimal morphological
// close/open pass to remove speckle. The result always has the same
// dimensions as the input. Degenerate inputs are returned unchanged so a
// bad frame degrades recognition instead of aborting the scan.
func Preprocess(img image.Image) image.Image {
	if img == nil {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		log.Printf("preprocess: empty bounds %v, passing input through", b)
		return img
	}
	gray := imaging.Grayscale(img)
	smoothed := imaging.Blur(gray, blurSigma)
	bin := binarize(smoothed, otsuThreshold(smoothed))
	// close then open with a near-identity cross element
	bin = erode(dilate(bin, 1), 1)
	bin = dilate(erode(bin, 1), 1)
	return bin
}

// otsuThreshold picks the global threshold that maximizes between-class
// variance over the grayscale histogram.
func otsuThreshold(img image.Image) uint8 {
	var hist [256]int
	b := img.Bounds()
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			hist[uint8((r+g+bb)/3>>8)]++
			total++
		}
	}
	if total == 0 {
		return 128
	}
	sum := 0.0
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}
	sumB := 0.0
	wB := 0
	best := 0
	bestVar := -1.0
	for t := 0; t < 256; t++ {
		wB += hist[t]
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / float64(wB)
		mF := (sum - sumB) / float64(wF)
		between := float64(wB) * float64(wF) * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			best = t
		}
	}
	return uint8(best)
}

// binarize performs a global threshold on a grayscale image. Pixels at or
// below the threshold become black, everything else white.
func binarize(img image.Image, threshold uint8) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, _ := img.At(x, y).RGBA()
			gray := uint8((r + g + bb) / 3 >> 8)
			var v uint8 = 255
			if gray <= threshold {
				v = 0
			}
			out.Set(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return out
}

var crossNeighborhood = [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// dilate grows black regions by a 4-neighborhood pass, radius times.
func dilate(img *image.NRGBA, radius int) *image.NRGBA {
	if radius <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cur := img
	for r := 0; r < radius; r++ {
		next := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				black := false
				for _, d := range crossNeighborhood {
					x2 := x + d[0]
					y2 := y + d[1]
					if x2 < 0 || y2 < 0 || x2 >= w || y2 >= h {
						continue
					}
					rv, gv, bv, _ := cur.At(x2, y2).RGBA()
					if rv+gv+bv == 0 {
						black = true
						break
					}
				}
				if black {
					next.Set(x, y, color.NRGBA{0, 0, 0, 255})
				}
			}
		}
		cur = next
	}
	return cur
}

// erode shrinks black regions by a 4-neighborhood pass, radius times.
func erode(img *image.NRGBA, radius int) *image.NRGBA {
	if radius <= 0 {
		return img
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	cur := img
	for r := 0; r < radius; r++ {
		next := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				black := true
				for _, d := range crossNeighborhood {
					x2 := x + d[0]
					y2 := y + d[1]
					if x2 < 0 || y2 < 0 || x2 >= w || y2 >= h {
						continue
					}
					rv, gv, bv, _ := cur.At(x2, y2).RGBA()
					if rv+gv+bv != 0 {
						black = false
						break
					}
				}
				if black {
					next.Set(x, y, color.NRGBA{0, 0, 0, 255})
				}
			}
		}
		cur = next
	}
	return cur
}
