package pipeline

import (
	"context"
	"image"
	"image/color"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/mapscene-ai/go-scene/cluster"
	"github.com/mapscene-ai/go-scene/models/decode"
	"github.com/mapscene-ai/go-scene/regions"
)

// Result is the immutable hand-off produced by one Process call.
type Result struct {
	// Terrain holds the terrain-branch segments in analysis order.
	Terrain []*regions.AnalyzedSegment `json:"terrain"`
	// Objects holds discrete objects collapsed into instanced groups.
	Objects []regions.ObjectGrouping `json:"objects"`
	// Placements is the density-retargeted position set, present when
	// the configured target density differs from 1.
	Placements []Placement `json:"placements,omitempty"`
	// Metrics describes the density and distribution of the scene.
	Metrics *SceneMetrics `json:"metrics"`
}

// Pipeline wires the decode, merge, classification and grouping stages
// into one scene analysis pass.
type Pipeline struct {
	Config   Config
	Analyzer *Analyzer
	// Similarity overrides the mask-overlap grouping measure; nil uses
	// the default pixel-overlap ratio.
	Similarity cluster.SimilarityFn
	// Retarget controls the distribution strategy when TargetDensity
	// deviates from 1.
	Retarget RetargetOptions
}

// New builds a pipeline with an analyzer sharing the same config.
// Collaborator models are attached to the returned Analyzer.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		Config:   cfg,
		Analyzer: NewAnalyzer(cfg),
	}
}

// Process runs the full analysis pass over one scene.
//
// Stages, in order: decode the raw score buffer into detections,
// materialize masks from the prototype buffer when one is supplied,
// merge overlapping same-class segments, classify and enrich each
// segment, split terrain from objects, collapse near-duplicate objects
// into groups, retarget density, and measure the scene.
//
// Arguments:
//   - ctx: Cancels segment analysis when done.
//   - img: The source raster the buffer was inferred from.
//   - buf: The raw detection output buffer, shape [1, N, C].
//   - protos: Optional mask prototype buffer, shape [1, P, h, w].
//
// Returns:
//   - *Result: The scene catalogue; empty but non-nil when the buffer
//     holds no accepted candidates.
//   - error: An error on invalid input or cancellation.
func (p *Pipeline) Process(
	ctx context.Context,
	img image.Image,
	buf *tensor.Dense,
	protos *tensor.Dense,
) (*Result, error) {
	if img == nil {
		return nil, errors.New("source image must not be nil")
	}

	cfg := p.decoderConfig(img)
	detections, err := decode.Decode(buf, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode detections")
	}

	segments := make([]*regions.Segment, len(detections))
	for i := range detections {
		segments[i] = regions.NewSegment(detections[i])
		segments[i].Color = classColor(detections[i].ClassID)
	}
	if err := MaterializeMasks(segments, protos, cfg.ImageWidth, cfg.ImageHeight); err != nil {
		return nil, errors.Wrap(err, "failed to materialize masks")
	}

	merged := MergeOverlapping(segments, p.Config.MergeIoUThreshold)

	analyzed, err := p.Analyzer.Run(ctx, img, merged)
	if err != nil {
		return nil, errors.Wrap(err, "segment analysis interrupted")
	}

	var terrain, objects []*regions.AnalyzedSegment
	for _, seg := range analyzed {
		if seg == nil {
			continue
		}
		if seg.IsTerrain() {
			terrain = append(terrain, seg)
		} else {
			objects = append(objects, seg)
		}
	}

	groups := cluster.GroupBySimilarity(objects, p.Config.SimilarityThreshold, p.Similarity)

	result := &Result{
		Terrain: terrain,
		Objects: groups,
		Metrics: ComputeSceneMetrics(analyzed, p.metricsConfig(img)),
	}

	if p.Config.TargetDensity > 0 && p.Config.TargetDensity != 1 {
		placements, err := RetargetDensity(
			groups,
			float64(p.Config.TargetDensity),
			p.Retarget,
			p.rng(),
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to retarget object density")
		}
		result.Placements = placements
	}

	return result, nil
}

// decoderConfig fills the frame dimensions from the image when the
// configured decoder leaves them unset.
func (p *Pipeline) decoderConfig(img image.Image) decode.Config {
	cfg := p.Config.Decoder
	bounds := img.Bounds()
	if cfg.ImageWidth <= 0 {
		cfg.ImageWidth = bounds.Dx()
	}
	if cfg.ImageHeight <= 0 {
		cfg.ImageHeight = bounds.Dy()
	}
	return cfg
}

// metricsConfig sizes the metric frame area to the source image.
func (p *Pipeline) metricsConfig(img image.Image) MetricsConfig {
	cfg := DefaultMetricsConfig()
	bounds := img.Bounds()
	if bounds.Dx() > 0 && bounds.Dy() > 0 {
		cfg.FrameArea = float64(bounds.Dx() * bounds.Dy())
	}
	return cfg
}

func (p *Pipeline) rng() *rand.Rand {
	seed := p.Config.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// classPalette holds the visualization colors cycled across class IDs.
var classPalette = []color.RGBA{
	{R: 230, G: 57, B: 70, A: 255},
	{R: 29, G: 53, B: 87, A: 255},
	{R: 69, G: 123, B: 157, A: 255},
	{R: 42, G: 157, B: 143, A: 255},
	{R: 233, G: 196, B: 106, A: 255},
	{R: 244, G: 162, B: 97, A: 255},
	{R: 38, G: 70, B: 83, A: 255},
	{R: 168, G: 218, B: 220, A: 255},
}

// classColor returns the visualization color for a class ID. IDs beyond
// the palette wrap around, so every class gets a stable non-zero color.
func classColor(classID int) color.RGBA {
	if classID < 0 {
		classID = -classID
	}
	return classPalette[classID%len(classPalette)]
}
