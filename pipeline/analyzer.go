package pipeline

import (
	"context"
	"image"
	"log"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mapscene-ai/go-scene/regions"
)

// BinaryClassifier is the terrain-vs-object model. Index 0 of the score
// pair is terrain, index 1 is object.
type BinaryClassifier interface {
	Scores(ctx context.Context, crop image.Image) ([2]float32, error)
}

// DetailClassifier is the secondary model refining the coarse class into
// a detail-table index, returned with its confidence.
type DetailClassifier interface {
	ClassIndex(ctx context.Context, crop image.Image) (int, float32, error)
}

// HeightEstimator produces a per-pixel height field for a terrain crop.
type HeightEstimator interface {
	EstimateHeights(ctx context.Context, crop image.Image) (*regions.HeightField, error)
}

// DescriptionPrompt is the structured payload handed to the description
// enhancement collaborator.
type DescriptionPrompt struct {
	ObjectType      string             `json:"object_type"`
	DetailedClass   string             `json:"detailed_class"`
	EstimatedHeight float32            `json:"estimated_height"`
	Features        map[string]float32 `json:"features"`
}

// Describer turns a prompt into a short descriptive string. Absence or
// failure of this collaborator never blocks the pipeline; the
// description simply stays empty.
type Describer interface {
	Describe(ctx context.Context, prompt DescriptionPrompt) (string, error)
}

// Analyzer runs the per-segment classification state machine. Every
// collaborator field is optional; a nil model degrades that stage to its
// documented heuristic instead of failing the segment.
type Analyzer struct {
	Config   Config
	Binary   BinaryClassifier
	Detail   DetailClassifier
	Heights  HeightEstimator
	Describe Describer
	// Rotation estimates object yaw; nil uses AspectRotation.
	Rotation RotationStrategy
}

// NewAnalyzer builds an analyzer with the given config and no models
// wired; callers attach collaborators to the returned value.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{Config: cfg, Rotation: AspectRotation}
}

// Run analyzes every segment against the source image.
//
// Segments are dispatched to a bounded worker pool (Config.MaxConcurrent
// in-flight at once). Results land in a pre-sized, index-addressed slice
// so workers never contend on shared state; each analysis reads only its
// own crop. Cancellation stops enqueuing new segments — a segment that
// was dispatched always completes.
//
// Arguments:
//   - ctx: Cancels enqueuing when done.
//   - img: The source raster segments were detected in.
//   - segments: The merged segments to analyze.
//
// Returns:
//   - []*regions.AnalyzedSegment: One entry per dispatched segment, in
//     input order (shorter than the input only under cancellation).
//   - error: The context error when cancelled mid-run, nil otherwise.
func (a *Analyzer) Run(
	ctx context.Context,
	img image.Image,
	segments []*regions.Segment,
) ([]*regions.AnalyzedSegment, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	limit := a.Config.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	seed := a.Config.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]*regions.AnalyzedSegment, len(segments))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	dispatched := 0
	for i, seg := range segments {
		if groupCtx.Err() != nil {
			break
		}
		dispatched++

		i, seg := i, seg
		rng := rand.New(rand.NewSource(seed + int64(i)))
		group.Go(func() error {
			results[i] = a.analyzeSegment(groupCtx, img, seg, rng)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return results[:dispatched], err
	}
	if err := ctx.Err(); err != nil {
		return results[:dispatched], err
	}
	return results[:dispatched], nil
}

// analyzeSegment walks one segment through the sequential stages:
// crop, binary classification, detail classification, features, then the
// terrain or placement branch.
func (a *Analyzer) analyzeSegment(
	ctx context.Context,
	img image.Image,
	seg *regions.Segment,
	rng *rand.Rand,
) *regions.AnalyzedSegment {
	crop := seg.Crop(img, true)

	isTerrain, classConfidence := a.classifyBinary(ctx, crop, seg)
	detailedClass := a.classifyDetail(ctx, crop, seg, isTerrain)
	features := ExtractFeatures(crop)

	var analyzed *regions.AnalyzedSegment
	if isTerrain {
		analyzed = a.analyzeTerrain(ctx, crop, seg, detailedClass, classConfidence, features, rng)
	} else {
		analyzed = a.analyzeObject(img, seg, detailedClass, classConfidence, features, rng)
	}

	a.enhanceDescription(ctx, analyzed)
	return analyzed
}

// classifyBinary runs the two-way classifier, falling back to the
// keyword list over the coarse class name.
func (a *Analyzer) classifyBinary(
	ctx context.Context,
	crop image.Image,
	seg *regions.Segment,
) (bool, float32) {
	if a.Binary != nil {
		scores, err := a.Binary.Scores(ctx, crop)
		if err == nil {
			isTerrain := scores[0] > scores[1]
			confidence := scores[0]
			if scores[1] > confidence {
				confidence = scores[1]
			}
			return isTerrain, confidence
		}
		log.Printf("pipeline: binary classifier failed, using keyword fallback: %v", err)
	}
	return isTerrainKeyword(seg.Detection.ClassName), fallbackBinaryConfidence
}

// classifyDetail runs the secondary classifier against the branch's
// lookup table, falling back to the coarse label.
func (a *Analyzer) classifyDetail(
	ctx context.Context,
	crop image.Image,
	seg *regions.Segment,
	terrain bool,
) string {
	if a.Detail != nil {
		index, _, err := a.Detail.ClassIndex(ctx, crop)
		if err == nil {
			return detailName(index, terrain)
		}
		log.Printf("pipeline: detail classifier failed, using coarse label: %v", err)
	}
	return seg.Detection.ClassName
}

// analyzeTerrain is the terrain branch: height field, elevation scalar
// and topology features.
func (a *Analyzer) analyzeTerrain(
	ctx context.Context,
	crop image.Image,
	seg *regions.Segment,
	detailedClass string,
	classConfidence float32,
	features regions.FeatureVector,
	rng *rand.Rand,
) *regions.AnalyzedSegment {
	objectType := seg.Detection.ClassName

	var field *regions.HeightField
	var level float32
	if a.Heights != nil {
		estimated, err := a.Heights.EstimateHeights(ctx, crop)
		if err != nil {
			log.Printf("pipeline: height estimation failed, using default range: %v", err)
		} else {
			field = ClampHeightField(estimated)
			level = meanHeight(field)
		}
	}
	if field == nil {
		level = fallbackHeight(objectType, rng)
		field = flatFallbackField(seg, level, fallbackFieldResolution)
	}

	seg.EstimatedHeight = level * a.Config.MaxTerrainHeight

	detail := &regions.TerrainDetail{
		HeightMap: field,
		Topology:  ComputeTopology(field, a.Config.MaxTerrainHeight),
	}
	return regions.NewTerrainSegment(seg, objectType, detailedClass, classConfidence, features, detail)
}

// analyzeObject is the placement branch: normalized position, type-keyed
// scale stretched by aspect ratio, heuristic rotation and the combined
// placement confidence.
func (a *Analyzer) analyzeObject(
	img image.Image,
	seg *regions.Segment,
	detailedClass string,
	classConfidence float32,
	features regions.FeatureVector,
	rng *rand.Rand,
) *regions.AnalyzedSegment {
	objectType := seg.Detection.ClassName
	bounds := img.Bounds()

	cx, cy := seg.Box.Center()
	position := [2]float32{0.5, 0.5}
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		position[0] = cx / float32(bounds.Dx())
		position[1] = cy / float32(bounds.Dy())
	}

	rotation := a.Rotation
	if rotation == nil {
		rotation = AspectRotation
	}

	detail := &regions.ObjectDetail{
		NormalizedPosition:  position,
		Scale:               estimateScale(detailedClass, seg.Box),
		RotationDeg:         rotation(seg.Box, rng),
		PlacementConfidence: seg.Detection.Confidence * classConfidence,
	}
	return regions.NewObjectSegment(seg, objectType, detailedClass, classConfidence, features, detail)
}

// enhanceDescription calls the optional description collaborator under
// its own deadline. Failure leaves the description empty and is surfaced
// only as a warning.
func (a *Analyzer) enhanceDescription(ctx context.Context, analyzed *regions.AnalyzedSegment) {
	if a.Describe == nil {
		return
	}

	timeout := time.Duration(a.Config.DescribeTimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	describeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt := DescriptionPrompt{
		ObjectType:      analyzed.ObjectType,
		DetailedClass:   analyzed.DetailedClass,
		EstimatedHeight: analyzed.Segment.EstimatedHeight,
		Features:        analyzed.Features.Map(),
	}
	description, err := a.Describe.Describe(describeCtx, prompt)
	if err != nil {
		log.Printf("pipeline: description enhancement failed for %s: %v", analyzed.ObjectType, err)
		return
	}
	analyzed.Segment.Detection.Description = description
}
