package pipeline

import (
	"github.com/chewxy/math32"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// fallbackFieldResolution is the height proxy resolution when no
// estimation model is wired.
const fallbackFieldResolution = 32

// ClampHeightField clamps every sample to [0, 1] in place and returns
// the field for chaining. Model height heads occasionally overshoot the
// nominal range.
func ClampHeightField(field *regions.HeightField) *regions.HeightField {
	if field == nil {
		return nil
	}
	for i, v := range field.Samples {
		field.Samples[i] = images.Clamp32(v, 0, 1)
	}
	return field
}

// ComputeTopology derives the terrain descriptors of a height field.
//
// Slope is computed per interior pixel from the central-difference
// gradient magnitude, converted to degrees via arctangent, then averaged
// (Slope) and maxed (MaxSlope). Roughness is the standard deviation of
// the height field around its mean.
//
// Arguments:
//   - field: The height field, samples in [0, 1].
//   - verticalScale: The height in scene units that a sample of 1
//     represents; gradients are computed against unit pixel spacing.
//
// Returns:
//   - regions.TopologyFeatures: The derived descriptors; zero for nil or
//     degenerate fields.
func ComputeTopology(field *regions.HeightField, verticalScale float32) regions.TopologyFeatures {
	var topo regions.TopologyFeatures
	if field == nil || field.Width < 3 || field.Height < 3 {
		return topo
	}

	var slopeSum float64
	var maxSlope float32
	samples := 0
	for y := 1; y < field.Height-1; y++ {
		for x := 1; x < field.Width-1; x++ {
			gx := (field.At(x+1, y) - field.At(x-1, y)) / 2 * verticalScale
			gy := (field.At(x, y+1) - field.At(x, y-1)) / 2 * verticalScale
			slope := math32.Atan(math32.Hypot(gx, gy)) * 180 / math32.Pi
			slopeSum += float64(slope)
			if slope > maxSlope {
				maxSlope = slope
			}
			samples++
		}
	}
	if samples > 0 {
		topo.Slope = float32(slopeSum / float64(samples))
		topo.MaxSlope = maxSlope
	}

	var sum float64
	for _, v := range field.Samples {
		sum += float64(v)
	}
	mean := sum / float64(len(field.Samples))

	var sqDiff float64
	for _, v := range field.Samples {
		d := float64(v) - mean
		sqDiff += d * d
	}
	topo.Roughness = math32.Sqrt(float32(sqDiff / float64(len(field.Samples))))

	return topo
}

// meanHeight returns the average sample of a field, 0 for nil.
func meanHeight(field *regions.HeightField) float32 {
	if field == nil || len(field.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, v := range field.Samples {
		sum += float64(v)
	}
	return float32(sum / float64(len(field.Samples)))
}
