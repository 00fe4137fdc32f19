package pipeline

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// patternLag is the horizontal pixel offset used for the regularity
// autocorrelation.
const patternLag = 4

// edgeThreshold is the gradient magnitude (0..255 scale) above which a
// pixel counts as an edge.
const edgeThreshold = 24

// ExtractFeatures computes the fixed appearance statistics of a crop.
// All outputs are normalized to [0, 1] so the vector is comparable
// across crops of different sizes and exposures.
//
// Arguments:
//   - crop: The segment's cropped image, alpha carrying mask membership
//     when one was composited.
//
// Returns:
//   - regions.FeatureVector: The computed statistics; zero-valued for
//     degenerate crops.
func ExtractFeatures(crop *image.RGBA) regions.FeatureVector {
	bounds := crop.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w < 2 || h < 2 {
		return regions.FeatureVector{}
	}

	gray := images.Grayscale(crop)

	var features regions.FeatureVector
	features.Density = coverage(crop, w, h)
	features.Contrast, features.TextureVariance = luminanceStats(gray, w, h)
	features.EdgeDensity, features.Complexity = edgeStats(gray, w, h)
	features.ColorVariance = colorVariance(crop, w, h)
	features.Symmetry = horizontalSymmetry(gray, w, h)
	features.PatternRegularity = patternRegularity(gray, w, h)
	return features
}

// coverage is the fraction of pixels whose alpha passes the mask
// threshold.
func coverage(crop *image.RGBA, w, h int) float32 {
	inside := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if float32(crop.RGBAAt(x, y).A)/255 >= images.MaskThreshold {
				inside++
			}
		}
	}
	return float32(inside) / float32(w*h)
}

// luminanceStats returns normalized contrast (max minus min) and
// variance of the luminance plane.
func luminanceStats(gray *image.Gray, w, h int) (contrast, variance float32) {
	minLum := float32(255)
	maxLum := float32(0)
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			lum := float32(gray.GrayAt(x, y).Y)
			if lum < minLum {
				minLum = lum
			}
			if lum > maxLum {
				maxLum = lum
			}
			sum += float64(lum)
		}
	}
	mean := float32(sum / float64(w*h))

	var sqDiff float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := float32(gray.GrayAt(x, y).Y) - mean
			sqDiff += float64(d * d)
		}
	}

	contrast = (maxLum - minLum) / 255
	// Normalize by the maximum possible variance (uniform split between
	// black and white, sigma = 127.5).
	variance = math32.Sqrt(float32(sqDiff/float64(w*h))) / 127.5
	return contrast, images.Clamp32(variance, 0, 1)
}

// edgeStats returns the fraction of edge pixels and a complexity score
// combining edge count with the luminance histogram's entropy.
func edgeStats(gray *image.Gray, w, h int) (edgeDensity, complexity float32) {
	edges := 0
	var hist [16]int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := float32(gray.GrayAt(x+1, y).Y) - float32(gray.GrayAt(x-1, y).Y)
			gy := float32(gray.GrayAt(x, y+1).Y) - float32(gray.GrayAt(x, y-1).Y)
			if math32.Hypot(gx, gy) > edgeThreshold {
				edges++
			}
			hist[gray.GrayAt(x, y).Y>>4]++
		}
	}

	interior := (w - 2) * (h - 2)
	if interior <= 0 {
		return 0, 0
	}
	edgeDensity = float32(edges) / float32(interior)

	var entropy float32
	for _, count := range hist {
		if count == 0 {
			continue
		}
		p := float32(count) / float32(interior)
		entropy -= p * math32.Log2(p)
	}
	// 16 bins bound the entropy at 4 bits.
	complexity = images.Clamp32((edgeDensity+entropy/4)/2, 0, 1)
	return edgeDensity, complexity
}

// colorVariance is the mean per-channel standard deviation, normalized.
func colorVariance(crop *image.RGBA, w, h int) float32 {
	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := crop.RGBAAt(x, y)
			sumR += float64(c.R)
			sumG += float64(c.G)
			sumB += float64(c.B)
		}
	}
	n := float64(w * h)
	meanR := sumR / n
	meanG := sumG / n
	meanB := sumB / n

	var varR, varG, varB float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := crop.RGBAAt(x, y)
			varR += (float64(c.R) - meanR) * (float64(c.R) - meanR)
			varG += (float64(c.G) - meanG) * (float64(c.G) - meanG)
			varB += (float64(c.B) - meanB) * (float64(c.B) - meanB)
		}
	}

	mean := (math32.Sqrt(float32(varR/n)) + math32.Sqrt(float32(varG/n)) + math32.Sqrt(float32(varB/n))) / 3
	return images.Clamp32(mean/127.5, 0, 1)
}

// horizontalSymmetry compares the luminance plane with its left-right
// mirror: 1 means perfectly symmetric.
func horizontalSymmetry(gray *image.Gray, w, h int) float32 {
	var diff float64
	samples := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w/2; x++ {
			left := float64(gray.GrayAt(x, y).Y)
			right := float64(gray.GrayAt(w-1-x, y).Y)
			if left > right {
				diff += left - right
			} else {
				diff += right - left
			}
			samples++
		}
	}
	if samples == 0 {
		return 1
	}
	return 1 - images.Clamp32(float32(diff/float64(samples))/255, 0, 1)
}

// patternRegularity is the lag-k autocorrelation of horizontal
// luminance, clamped to [0, 1]; repeating textures score high.
func patternRegularity(gray *image.Gray, w, h int) float32 {
	if w <= patternLag {
		return 0
	}

	var sum float64
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w-patternLag; x++ {
			sum += float64(gray.GrayAt(x, y).Y)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)

	var cov, variance float64
	for y := 0; y < h; y++ {
		for x := 0; x < w-patternLag; x++ {
			a := float64(gray.GrayAt(x, y).Y) - mean
			b := float64(gray.GrayAt(x+patternLag, y).Y) - mean
			cov += a * b
			variance += a * a
		}
	}
	if variance == 0 {
		// A flat plane repeats trivially.
		return 1
	}
	return images.Clamp32(float32(cov/variance), 0, 1)
}
