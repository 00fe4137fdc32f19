package pipeline

import (
	"math/rand"
	"strings"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// terrainKeywords is the closed fallback vocabulary for the binary
// terrain/object split when no classifier is wired. A coarse class name
// containing any of these reads as terrain.
var terrainKeywords = []string{
	"water", "river", "lake", "sea", "ocean",
	"mountain", "peak", "cliff",
	"forest", "woods", "jungle",
	"desert", "dune", "sand",
	"plain", "grass", "meadow", "field",
	"swamp", "marsh", "bog",
	"beach", "shore", "coast",
	"snow", "ice", "glacier",
	"hills", "valley",
}

// fallbackBinaryConfidence is the classification confidence reported by
// the keyword fallback; keyword matches are reliable but carry no model
// score to forward.
const fallbackBinaryConfidence = 0.75

// isTerrainKeyword runs the keyword fallback over a coarse class name.
func isTerrainKeyword(className string) bool {
	name := strings.ToLower(className)
	for _, keyword := range terrainKeywords {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

// terrainDetailNames is the lookup table indexed by the detail
// classifier's argmax on the terrain branch.
var terrainDetailNames = []string{
	"rocky_mountain",
	"snowy_mountain",
	"forest",
	"dense_forest",
	"shallow_water",
	"deep_water",
	"sand_desert",
	"grassland",
	"swamp",
	"beach",
	"snow_field",
	"rolling_hills",
}

// objectDetailNames is the lookup table indexed by the detail
// classifier's argmax on the object branch.
var objectDetailNames = []string{
	"house",
	"castle",
	"tower",
	"bridge",
	"tree",
	"rock",
	"ship",
	"wall",
	"ruin",
	"camp",
	"windmill",
	"statue",
}

// Sentinels for detail indices outside the lookup tables.
const (
	unknownTerrain = "unknown_terrain"
	unknownObject  = "unknown_object"
)

// detailName resolves a classifier index against the branch's table,
// mapping out-of-range indices to the unknown sentinel.
func detailName(index int, terrain bool) string {
	table := objectDetailNames
	sentinel := unknownObject
	if terrain {
		table = terrainDetailNames
		sentinel = unknownTerrain
	}
	if index < 0 || index >= len(table) {
		return sentinel
	}
	return table[index]
}

// heightRange is the fallback elevation band for a terrain type,
// normalized to [-1, 1] before MaxTerrainHeight scaling.
type heightRange struct {
	min, max float32
}

// defaultHeightRanges keys fallback elevations by terrain keyword.
// Water is exactly 0 so shorelines stay level; valleys dip below the
// base plane.
var defaultHeightRanges = map[string]heightRange{
	"mountain": {0.6, 1.0},
	"hills":    {0.2, 0.45},
	"valley":   {-0.3, -0.1},
	"water":    {0, 0},
	"swamp":    {0.0, 0.05},
	"beach":    {0.0, 0.08},
	"desert":   {0.05, 0.2},
	"forest":   {0.1, 0.3},
	"snow":     {0.5, 0.9},
	"plain":    {0.02, 0.1},
}

// fallbackHeight picks an elevation for a terrain type when no height
// model is wired: the type's band with a small jitter inside it, or a
// small positive jitter for unknown types.
func fallbackHeight(objectType string, rng *rand.Rand) float32 {
	name := strings.ToLower(objectType)
	for keyword, band := range defaultHeightRanges {
		if strings.Contains(name, keyword) {
			if band.min == band.max {
				return band.min
			}
			return band.min + rng.Float32()*(band.max-band.min)
		}
	}
	return 0.02 + rng.Float32()*0.08
}

// baseScales keys an object type to its base 3D extent (x, y, z) in
// scene units before aspect-ratio stretching.
var baseScales = map[string][3]float32{
	"house":    {4, 3, 4},
	"castle":   {12, 10, 12},
	"tower":    {3, 9, 3},
	"bridge":   {10, 2, 3},
	"tree":     {2, 5, 2},
	"rock":     {1.5, 1, 1.5},
	"ship":     {8, 4, 3},
	"wall":     {6, 2.5, 1},
	"ruin":     {5, 2, 5},
	"camp":     {4, 1.5, 4},
	"windmill": {3, 7, 3},
	"statue":   {1.5, 3.5, 1.5},
	"village":  {15, 3, 15},
	"dock":     {5, 1, 2},
}

// defaultBaseScale is the extent for object types without an entry.
var defaultBaseScale = [3]float32{2, 2, 2}

// aspect ratio bands for the rotation heuristic.
const (
	stronglyHorizontal = 2.0
	stronglyVertical   = 0.5
)

// estimateScale derives the 3D extent from the type's base size and the
// box's aspect ratio: wider boxes stretch x, taller boxes stretch z, y
// stays at the base height.
func estimateScale(objectType string, box images.Rect) [3]float32 {
	base := defaultBaseScale
	name := strings.ToLower(objectType)
	for keyword, scale := range baseScales {
		if strings.Contains(name, keyword) {
			base = scale
			break
		}
	}

	w := box.Width()
	h := box.Height()
	if w <= 0 || h <= 0 {
		return base
	}

	aspect := w / h
	scale := base
	if aspect > 1 {
		scale[0] *= images.Clamp32(aspect, 1, 3)
	} else if aspect < 1 {
		scale[2] *= images.Clamp32(1/aspect, 1, 3)
	}
	return scale
}

// RotationStrategy estimates an object's yaw in degrees from its
// bounding box. The default is a coarse aspect-ratio heuristic (a
// placeholder, not geometric truth); callers with better pose
// information swap in their own.
type RotationStrategy func(box images.Rect, rng *rand.Rand) float32

// AspectRotation is the default RotationStrategy: strongly horizontal
// boxes face forward (near 0 degrees), strongly vertical ones are turned
// 90 degrees, anything else is unconstrained random.
func AspectRotation(box images.Rect, rng *rand.Rand) float32 {
	w := box.Width()
	h := box.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	aspect := w / h
	switch {
	case aspect >= stronglyHorizontal:
		return rng.Float32()*10 - 5
	case aspect <= stronglyVertical:
		return 90 + rng.Float32()*10 - 5
	default:
		return rng.Float32() * 360
	}
}

// flatFallbackField builds the height proxy used when no estimation
// model is wired: a constant plane at the fallback height, shaped by the
// segment mask when one exists so masked-out pixels drop to zero.
func flatFallbackField(seg *regions.Segment, level float32, resolution int) *regions.HeightField {
	field := regions.NewHeightField(resolution, resolution)
	if field == nil {
		return nil
	}
	normalized := images.Clamp32(level, 0, 1)
	for y := 0; y < resolution; y++ {
		for x := 0; x < resolution; x++ {
			v := normalized
			if seg.Mask != nil {
				u := float32(x) / float32(resolution-1)
				w := float32(y) / float32(resolution-1)
				if seg.Mask.SampleBilinear(u, w) < images.MaskThreshold {
					v = 0
				}
			}
			field.Samples[y*resolution+x] = v
		}
	}
	return field
}
