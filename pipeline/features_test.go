package pipeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// featureCrop builds an opaque w by h crop filled with one color.
func featureCrop(w, h int, c color.RGBA) *image.RGBA {
	crop := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			crop.SetRGBA(x, y, c)
		}
	}
	return crop
}

func TestExtractFeatures_FlatPlane(t *testing.T) {
	crop := featureCrop(16, 16, color.RGBA{R: 128, G: 128, B: 128, A: 255})

	features := ExtractFeatures(crop)
	assert.Equal(t, float32(1), features.Density, "fully opaque crop covers everything")
	assert.Equal(t, float32(0), features.Contrast)
	assert.Equal(t, float32(0), features.TextureVariance)
	assert.Equal(t, float32(0), features.EdgeDensity)
	assert.Equal(t, float32(0), features.Complexity, "one histogram bin carries no entropy")
	assert.Equal(t, float32(0), features.ColorVariance)
	assert.Equal(t, float32(1), features.Symmetry)
	assert.Equal(t, float32(1), features.PatternRegularity, "a flat plane repeats trivially")
}

func TestExtractFeatures_HalfAndHalf(t *testing.T) {
	// Left half black, right half white.
	crop := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if x >= 8 {
				v = 255
			}
			crop.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	features := ExtractFeatures(crop)
	assert.Equal(t, float32(1), features.Contrast, "black against white is full contrast")
	assert.InDelta(t, 1.0, float64(features.TextureVariance), 0.01,
		"an even black and white split is the variance ceiling")
	assert.Greater(t, features.EdgeDensity, float32(0), "the split produces an edge column")
	assert.Less(t, features.EdgeDensity, float32(0.5))
	assert.Greater(t, features.Complexity, float32(0))
	assert.Equal(t, float32(0), features.Symmetry, "black mirrors onto white")
	assert.Greater(t, features.ColorVariance, float32(0.9))
}

func TestExtractFeatures_Density(t *testing.T) {
	// Top half opaque, bottom half transparent.
	crop := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		a := uint8(255)
		if y >= 4 {
			a = 0
		}
		for x := 0; x < 8; x++ {
			crop.SetRGBA(x, y, color.RGBA{R: 90, G: 90, B: 90, A: a})
		}
	}

	features := ExtractFeatures(crop)
	assert.Equal(t, float32(0.5), features.Density)
}

func TestExtractFeatures_Degenerate(t *testing.T) {
	assert.Zero(t, ExtractFeatures(image.NewRGBA(image.Rect(0, 0, 1, 4))),
		"crops narrower than two pixels yield the zero vector")
	assert.Zero(t, ExtractFeatures(image.NewRGBA(image.Rect(0, 0, 4, 1))))
}

func TestExtractFeatures_RangeBounds(t *testing.T) {
	// Vertical stripes of width two give texture on every statistic.
	crop := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(40)
			if (x/2)%2 == 0 {
				v = 215
			}
			crop.SetRGBA(x, y, color.RGBA{R: v, G: uint8(y * 7), B: 128, A: 255})
		}
	}

	features := ExtractFeatures(crop)
	for name, v := range map[string]float32{
		"density":            features.Density,
		"contrast":           features.Contrast,
		"texture_variance":   features.TextureVariance,
		"edge_density":       features.EdgeDensity,
		"complexity":         features.Complexity,
		"color_variance":     features.ColorVariance,
		"symmetry":           features.Symmetry,
		"pattern_regularity": features.PatternRegularity,
	} {
		assert.GreaterOrEqual(t, v, float32(0), "%s stays in range", name)
		assert.LessOrEqual(t, v, float32(1), "%s stays in range", name)
	}
}
