package regions

// FeatureVector is the fixed set of appearance statistics extracted from
// a segment's crop. The key set never changes, so it is a struct rather
// than a map; Map() produces the open form for collaborator payloads.
type FeatureVector struct {
	Density           float32 `json:"density" yaml:"density"`
	Complexity        float32 `json:"complexity" yaml:"complexity"`
	Symmetry          float32 `json:"symmetry" yaml:"symmetry"`
	TextureVariance   float32 `json:"texture_variance" yaml:"texture_variance"`
	EdgeDensity       float32 `json:"edge_density" yaml:"edge_density"`
	ColorVariance     float32 `json:"color_variance" yaml:"color_variance"`
	PatternRegularity float32 `json:"pattern_regularity" yaml:"pattern_regularity"`
	Contrast          float32 `json:"contrast" yaml:"contrast"`
}

// Map returns the feature vector as a name-keyed map for interfaces that
// expect dynamic payloads (prompt construction, serialization).
func (f FeatureVector) Map() map[string]float32 {
	return map[string]float32{
		"density":            f.Density,
		"complexity":         f.Complexity,
		"symmetry":           f.Symmetry,
		"texture_variance":   f.TextureVariance,
		"edge_density":       f.EdgeDensity,
		"color_variance":     f.ColorVariance,
		"pattern_regularity": f.PatternRegularity,
		"contrast":           f.Contrast,
	}
}

// TopologyFeatures are terrain descriptors derived from a height field.
type TopologyFeatures struct {
	// Slope is the mean surface gradient in degrees.
	Slope float32 `json:"slope" yaml:"slope"`
	// MaxSlope is the steepest gradient in degrees.
	MaxSlope float32 `json:"max_slope" yaml:"max_slope"`
	// Roughness is the standard deviation of the height field.
	Roughness float32 `json:"roughness" yaml:"roughness"`
}

// TerrainDetail carries the terrain branch outputs of segment analysis.
type TerrainDetail struct {
	// HeightMap holds per-pixel elevation samples in [0, 1], stored in the
	// same normalized frame as a segment mask.
	HeightMap *HeightField
	// Topology summarizes the height field.
	Topology TopologyFeatures
}

// ObjectDetail carries the placement branch outputs of segment analysis.
type ObjectDetail struct {
	// NormalizedPosition is the box center divided by the image dimensions.
	NormalizedPosition [2]float32 `json:"normalized_position" yaml:"normalized_position"`
	// Scale is the estimated 3D extent (x, y, z) in scene units.
	Scale [3]float32 `json:"scale" yaml:"scale"`
	// RotationDeg is the estimated yaw in degrees.
	RotationDeg float32 `json:"rotation_deg" yaml:"rotation_deg"`
	// PlacementConfidence is detection confidence times classification
	// confidence.
	PlacementConfidence float32 `json:"placement_confidence" yaml:"placement_confidence"`
}

// HeightField is a W x H plane of float32 elevation samples in [0, 1].
type HeightField struct {
	Width  int
	Height int
	// Samples holds Width*Height values in row-major order.
	Samples []float32
}

// NewHeightField allocates a zeroed height field. Returns nil for
// non-positive dimensions.
func NewHeightField(width, height int) *HeightField {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &HeightField{
		Width:   width,
		Height:  height,
		Samples: make([]float32, width*height),
	}
}

// At returns the sample at (x, y) with clamped indices.
func (h *HeightField) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= h.Width {
		x = h.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h.Height {
		y = h.Height - 1
	}
	return h.Samples[y*h.Width+x]
}

// AnalyzedSegment is a segment enriched with the full pipeline output.
//
// Exactly one of Terrain or Object is non-nil, branching on
// Segment.IsTerrain. Consumers switch on that pair; NewTerrainSegment and
// NewObjectSegment are the only constructors and enforce the invariant.
type AnalyzedSegment struct {
	Segment *Segment
	// ObjectType is the coarse type (terrain class or object class name).
	ObjectType string `json:"object_type" yaml:"object_type"`
	// DetailedClass is the secondary classifier's refinement of ObjectType.
	DetailedClass string `json:"detailed_class" yaml:"detailed_class"`
	// ClassificationConfidence is the binary classifier's winning score.
	ClassificationConfidence float32 `json:"classification_confidence" yaml:"classification_confidence"`
	// Features describes the crop's appearance.
	Features FeatureVector `json:"features" yaml:"features"`

	Terrain *TerrainDetail
	Object  *ObjectDetail
}

// NewTerrainSegment constructs the terrain variant of an analyzed
// segment.
func NewTerrainSegment(
	seg *Segment,
	objectType, detailedClass string,
	confidence float32,
	features FeatureVector,
	detail *TerrainDetail,
) *AnalyzedSegment {
	seg.IsTerrain = true
	return &AnalyzedSegment{
		Segment:                  seg,
		ObjectType:               objectType,
		DetailedClass:            detailedClass,
		ClassificationConfidence: confidence,
		Features:                 features,
		Terrain:                  detail,
	}
}

// NewObjectSegment constructs the placeable-object variant of an
// analyzed segment.
func NewObjectSegment(
	seg *Segment,
	objectType, detailedClass string,
	confidence float32,
	features FeatureVector,
	detail *ObjectDetail,
) *AnalyzedSegment {
	seg.IsTerrain = false
	return &AnalyzedSegment{
		Segment:                  seg,
		ObjectType:               objectType,
		DetailedClass:            detailedClass,
		ClassificationConfidence: confidence,
		Features:                 features,
		Object:                   detail,
	}
}

// IsTerrain reports which branch of the union is populated.
func (a *AnalyzedSegment) IsTerrain() bool {
	return a.Terrain != nil
}

// ObjectGrouping collects near-duplicate analyzed objects behind a single
// representative. Segments keep their discovery order; the first entry is
// the group seed.
type ObjectGrouping struct {
	GroupID    int                `json:"group_id" yaml:"group_id"`
	ObjectType string             `json:"object_type" yaml:"object_type"`
	Segments   []*AnalyzedSegment `json:"segments" yaml:"segments"`
}

// Representative returns the group seed, or nil for an empty group.
func (g *ObjectGrouping) Representative() *AnalyzedSegment {
	if len(g.Segments) == 0 {
		return nil
	}
	return g.Segments[0]
}
