// Package pipeline - scene density and distribution metrics
package pipeline

import (
	"math"
	"sort"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// SceneMetrics provides detailed analysis of segment density and distribution
//
// This structure contains comprehensive metrics about analyzed segments
// including spatial distribution, size analysis, and clustering information.
type SceneMetrics struct {
	// TotalSegments is the total number of analyzed segments
	TotalSegments int `json:"total_segments"`

	// TerrainSegments is the count of terrain-branch segments
	TerrainSegments int `json:"terrain_segments"`

	// ObjectSegments is the count of object-branch segments
	ObjectSegments int `json:"object_segments"`

	// SmallSegments is the count of segments below the small segment threshold
	SmallSegments int `json:"small_segments"`

	// LargeSegments is the count of segments above the large segment threshold
	LargeSegments int `json:"large_segments"`

	// AverageSegmentSize is the mean bounding box area of all segments
	AverageSegmentSize float64 `json:"average_segment_size"`

	// SegmentSizeVariance measures the spread in segment sizes
	SegmentSizeVariance float64 `json:"segment_size_variance"`

	// SpatialDensity measures segments per unit area (segments per 1000 pixels)
	SpatialDensity float64 `json:"spatial_density"`

	// ClusteringCoefficient measures how clustered segments are (0-1 scale)
	ClusteringCoefficient float64 `json:"clustering_coefficient"`

	// OverlapRatio is the fraction of segments that overlap with others
	OverlapRatio float64 `json:"overlap_ratio"`

	// CenterOfMass represents the center point of all segments
	CenterOfMass [2]float32 `json:"center_of_mass"`

	// BoundingRegion contains all segments
	BoundingRegion images.Rect `json:"bounding_region"`

	// ConfidenceDistribution provides statistics on detection confidence
	ConfidenceDistribution ConfidenceStats `json:"confidence_distribution"`
}

// ConfidenceStats provides statistical analysis of detection confidence scores
type ConfidenceStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// MetricsConfig contains parameters for scene metrics calculation
type MetricsConfig struct {
	// SmallSegmentArea defines the area below which segments are considered small
	SmallSegmentArea float64 `json:"small_segment_area" yaml:"small_segment_area"`

	// LargeSegmentArea defines the area above which segments are considered large
	LargeSegmentArea float64 `json:"large_segment_area" yaml:"large_segment_area"`

	// ClusteringRadius defines the distance threshold for clustering analysis
	ClusteringRadius float64 `json:"clustering_radius" yaml:"clustering_radius"`

	// OverlapThreshold defines the IoU threshold for overlap detection
	OverlapThreshold float32 `json:"overlap_threshold" yaml:"overlap_threshold"`

	// FrameArea represents the total frame area for spatial density calculations
	FrameArea float64 `json:"frame_area" yaml:"frame_area"`
}

// DefaultMetricsConfig returns a default configuration for scene metrics
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		SmallSegmentArea: 500,
		LargeSegmentArea: 5000,
		ClusteringRadius: 100.0,
		OverlapThreshold: 0.3,
		FrameArea:        640 * 640,
	}
}

// ComputeSceneMetrics performs comprehensive density analysis over the
// analyzed segments of one scene.
//
// Arguments:
//   - segments: The analyzed segments to measure.
//   - cfg: Metric thresholds and the frame area.
//
// Returns:
//   - *SceneMetrics: Comprehensive density analysis results.
func ComputeSceneMetrics(segments []*regions.AnalyzedSegment, cfg MetricsConfig) *SceneMetrics {
	metrics := &SceneMetrics{
		TotalSegments: len(segments),
	}
	if len(segments) == 0 {
		return metrics
	}

	for _, seg := range segments {
		if seg.IsTerrain() {
			metrics.TerrainSegments++
		} else {
			metrics.ObjectSegments++
		}
	}

	computeSizeMetrics(segments, cfg, metrics)
	computeConfidenceMetrics(segments, metrics)
	computeSpatialMetrics(segments, cfg, metrics)
	computeClusteringMetrics(segments, cfg, metrics)
	computeOverlapMetrics(segments, cfg, metrics)

	return metrics
}

// computeSizeMetrics analyzes segment size distribution.
func computeSizeMetrics(segments []*regions.AnalyzedSegment, cfg MetricsConfig, metrics *SceneMetrics) {
	var totalArea, sumSquaredDiff float64
	areas := make([]float64, 0, len(segments))

	for _, seg := range segments {
		area := float64(seg.Segment.Box.Area())
		areas = append(areas, area)
		totalArea += area

		if area < cfg.SmallSegmentArea {
			metrics.SmallSegments++
		}
		if area > cfg.LargeSegmentArea {
			metrics.LargeSegments++
		}
	}

	metrics.AverageSegmentSize = totalArea / float64(len(segments))

	for _, area := range areas {
		diff := area - metrics.AverageSegmentSize
		sumSquaredDiff += diff * diff
	}
	metrics.SegmentSizeVariance = sumSquaredDiff / float64(len(segments))
}

// computeConfidenceMetrics analyzes detection confidence distribution.
func computeConfidenceMetrics(segments []*regions.AnalyzedSegment, metrics *SceneMetrics) {
	confidences := make([]float64, len(segments))
	var sum float64

	for i, seg := range segments {
		confidences[i] = float64(seg.Segment.Detection.Confidence)
		sum += confidences[i]
	}

	sort.Float64s(confidences)

	stats := &metrics.ConfidenceDistribution
	stats.Mean = sum / float64(len(segments))
	stats.Min = confidences[0]
	stats.Max = confidences[len(confidences)-1]

	if len(confidences)%2 == 0 {
		stats.Median = (confidences[len(confidences)/2-1] + confidences[len(confidences)/2]) / 2
	} else {
		stats.Median = confidences[len(confidences)/2]
	}

	var sumSquaredDiff float64
	for _, conf := range confidences {
		diff := conf - stats.Mean
		sumSquaredDiff += diff * diff
	}
	stats.StdDev = math.Sqrt(sumSquaredDiff / float64(len(confidences)))
}

// computeSpatialMetrics analyzes spatial distribution of segments.
func computeSpatialMetrics(segments []*regions.AnalyzedSegment, cfg MetricsConfig, metrics *SceneMetrics) {
	var sumX, sumY float32
	region := segments[0].Segment.Box

	for _, seg := range segments {
		cx, cy := seg.Segment.Box.Center()
		sumX += cx
		sumY += cy
		region = region.Union(seg.Segment.Box)
	}

	metrics.CenterOfMass = [2]float32{
		sumX / float32(len(segments)),
		sumY / float32(len(segments)),
	}
	metrics.BoundingRegion = region

	if cfg.FrameArea > 0 {
		metrics.SpatialDensity = float64(len(segments)) / cfg.FrameArea * 1000.0
	}
}

// computeClusteringMetrics analyzes how clustered segments are in space.
func computeClusteringMetrics(segments []*regions.AnalyzedSegment, cfg MetricsConfig, metrics *SceneMetrics) {
	if len(segments) < 2 {
		return
	}

	totalPairs := 0
	clusteredPairs := 0

	for i := 0; i < len(segments); i++ {
		xi, yi := segments[i].Segment.Box.Center()
		for j := i + 1; j < len(segments); j++ {
			xj, yj := segments[j].Segment.Box.Center()

			dx := float64(xi - xj)
			dy := float64(yi - yj)
			distance := math.Sqrt(dx*dx + dy*dy)

			totalPairs++
			if distance <= cfg.ClusteringRadius {
				clusteredPairs++
			}
		}
	}

	if totalPairs > 0 {
		metrics.ClusteringCoefficient = float64(clusteredPairs) / float64(totalPairs)
	}
}

// computeOverlapMetrics analyzes overlapping segments.
func computeOverlapMetrics(segments []*regions.AnalyzedSegment, cfg MetricsConfig, metrics *SceneMetrics) {
	if len(segments) < 2 {
		return
	}

	overlapping := 0
	for i := 0; i < len(segments); i++ {
		for j := 0; j < len(segments); j++ {
			if i == j {
				continue
			}
			iou := images.CalculateIoU(segments[i].Segment.Box, segments[j].Segment.Box)
			if iou >= cfg.OverlapThreshold {
				overlapping++
				break
			}
		}
	}

	metrics.OverlapRatio = float64(overlapping) / float64(len(segments))
}
