package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPrepareInput_ShapeAndLayout(t *testing.T) {
	img := solidImage(8, 8, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	input, err := PrepareInput(img, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 4, 4}, []int(input.Shape()))

	data, ok := input.Data().([]float32)
	require.True(t, ok, "input buffer holds float32")
	require.Len(t, data, 3*4*4)

	// Planar channel order: all red samples, then green, then blue.
	for i := 0; i < 16; i++ {
		assert.InDelta(t, 200.0/255, float64(data[i]), 0.02, "red plane sample %d", i)
		assert.InDelta(t, 100.0/255, float64(data[16+i]), 0.02, "green plane sample %d", i)
		assert.InDelta(t, 50.0/255, float64(data[32+i]), 0.02, "blue plane sample %d", i)
	}
}

func TestPrepareInput_ValuesNormalized(t *testing.T) {
	img := solidImage(6, 6, color.RGBA{R: 255, G: 0, B: 255, A: 255})

	input, err := PrepareInput(img, 6, 6)
	require.NoError(t, err)

	data := input.Data().([]float32)
	for i, v := range data {
		assert.GreaterOrEqual(t, v, float32(0), "sample %d stays normalized", i)
		assert.LessOrEqual(t, v, float32(1), "sample %d stays normalized", i)
	}
}

func TestPrepareInput_InvalidDimensions(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{A: 255})

	_, err := PrepareInput(img, 0, 4)
	assert.Error(t, err)
	_, err = PrepareInput(img, 4, -1)
	assert.Error(t, err)
}
