package images

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask_AtClampsOutOfRange(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, 1)
	m.Set(3, 3, 0.25)

	assert.Equal(t, float32(1), m.At(-5, -5), "reads left of the frame clamp to the edge")
	assert.Equal(t, float32(0.25), m.At(10, 10), "reads past the frame clamp to the edge")
}

func TestMask_Area(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, 1)
	m.Set(1, 0, 0.5)
	m.Set(2, 0, 0.49)
	m.Set(3, 0, 0.7)

	assert.Equal(t, 3, m.Area(), "pixels at or above the threshold count toward the area")
}

func TestMask_SampleBilinear(t *testing.T) {
	// A 2x2 mask with a horizontal gradient: left column 0, right column 1.
	m := NewMask(2, 2)
	m.Set(1, 0, 1)
	m.Set(1, 1, 1)

	assert.InDelta(t, 0.0, m.SampleBilinear(0, 0.5), 0.01, "left edge samples the left column")
	assert.InDelta(t, 1.0, m.SampleBilinear(1, 0.5), 0.01, "right edge samples the right column")
	assert.InDelta(t, 0.5, m.SampleBilinear(0.5, 0.5), 0.01, "midpoint interpolates between columns")

	// Out-of-range coordinates clamp instead of wrapping.
	assert.InDelta(t, 0.0, m.SampleBilinear(-1, 0.5), 0.01)
	assert.InDelta(t, 1.0, m.SampleBilinear(2, 0.5), 0.01)
}

func TestMask_ResizeTo(t *testing.T) {
	m := NewMask(2, 2)
	m.Fill(0.8)

	resized := m.ResizeTo(8, 8)
	require.NotNil(t, resized)
	assert.Equal(t, 8, resized.Width)
	assert.Equal(t, 8, resized.Height)

	// A constant mask stays constant under resampling.
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.InDelta(t, 0.8, resized.At(x, y), 0.001)
		}
	}
}

func TestMaskFromAlpha(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 10, G: 10, B: 10, A: 255})
	img.Set(1, 0, color.RGBA{})

	m := MaskFromAlpha(img)
	require.NotNil(t, m)
	assert.InDelta(t, 1.0, m.At(0, 0), 0.01, "opaque pixel maps to full membership")
	assert.InDelta(t, 0.0, m.At(1, 0), 0.01, "transparent pixel maps to no membership")
}

func TestMask_Clone(t *testing.T) {
	m := NewMask(2, 2)
	m.Set(0, 0, 0.5)

	c := m.Clone()
	c.Set(0, 0, 1)

	assert.Equal(t, float32(0.5), m.At(0, 0), "clone should not alias the original pixels")
	assert.Equal(t, float32(1), c.At(0, 0))
}
