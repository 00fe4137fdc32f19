package pipeline

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/mapscene-ai/go-scene/cluster"
	"github.com/mapscene-ai/go-scene/regions"
)

// DistributionMode selects the strategy used when resampling object
// positions to a new density.
type DistributionMode int

const (
	// DistributionClustered keeps points near k-means cluster centers.
	DistributionClustered DistributionMode = iota
	// DistributionSpread pushes crowded points apart via a
	// farthest-point walk over offset candidates.
	DistributionSpread
	// DistributionGrid snaps points to a jittered uniform grid.
	DistributionGrid
	// DistributionPathAligned projects points onto path polylines.
	DistributionPathAligned
	// DistributionFeatureAdaptive restricts points to feature regions.
	DistributionFeatureAdaptive
)

// spreadRadius is the offset distance DistributionSpread uses to pull
// crowded points apart, in unit coordinates.
const spreadRadius = 0.05

// Placement is one resampled object instance position in the unit square,
// still carrying its group identity so per-type instancing survives the
// density change.
type Placement struct {
	GroupID    int           `json:"group_id"`
	ObjectType string        `json:"object_type"`
	Position   cluster.Point `json:"position"`
}

// RetargetOptions carries the strategy inputs for density retargeting.
// Paths and Features are consulted only by the matching modes.
type RetargetOptions struct {
	Mode     DistributionMode
	Paths    []cluster.Polyline
	Features []cluster.MaskedRegion
	// GridCells is the grid resolution per axis for DistributionGrid.
	GridCells int
	// PathSnapDistance bounds projection distance for DistributionPathAligned.
	PathSnapDistance float64
}

// RetargetDensity resamples each grouping's positions so the total count
// approaches len(segments) * multiplier, preserving the per-group type.
//
// Shrinking a group picks a spatially representative subset; growing it
// synthesizes extra positions around the group's k-means structure, then
// the selected distribution mode reshapes the final set. A multiplier of
// 1 leaves counts unchanged but still applies the distribution mode.
//
// Arguments:
//   - groups: The object groupings to resample, positions in unit coords.
//   - multiplier: Target density relative to current (must be >= 0).
//   - opts: Distribution strategy and its inputs.
//   - rng: Randomness source for jitter and synthesis.
//
// Returns:
//   - []Placement: The resampled positions, grouped order preserved.
//   - error: An error when the multiplier is negative.
func RetargetDensity(
	groups []regions.ObjectGrouping,
	multiplier float64,
	opts RetargetOptions,
	rng *rand.Rand,
) ([]Placement, error) {
	if multiplier < 0 {
		return nil, errors.Errorf("density multiplier must be non-negative, got %f", multiplier)
	}

	var placements []Placement
	for _, group := range groups {
		points := groupPositions(group)
		if len(points) == 0 {
			continue
		}

		target := int(math.Round(float64(len(points)) * multiplier))
		if target <= 0 {
			continue
		}

		resampled := resampleGroup(points, target, rng)
		resampled = applyDistribution(resampled, opts, rng)

		for _, p := range resampled {
			placements = append(placements, Placement{
				GroupID:    group.GroupID,
				ObjectType: group.ObjectType,
				Position:   p,
			})
		}
	}
	return placements, nil
}

// groupPositions extracts the normalized positions of a group's members.
// Members missing placement detail contribute nothing.
func groupPositions(group regions.ObjectGrouping) []cluster.Point {
	points := make([]cluster.Point, 0, len(group.Segments))
	for _, seg := range group.Segments {
		if seg == nil || seg.Object == nil {
			continue
		}
		points = append(points, cluster.Point{
			X: float64(seg.Object.NormalizedPosition[0]),
			Y: float64(seg.Object.NormalizedPosition[1]),
		})
	}
	return points
}

// resampleGroup shrinks via farthest-point subset selection or grows by
// jittering around k-means centroids until the target count is reached.
func resampleGroup(points []cluster.Point, target int, rng *rand.Rand) []cluster.Point {
	if target == len(points) {
		out := make([]cluster.Point, len(points))
		copy(out, points)
		return out
	}
	if target < len(points) {
		return cluster.FarthestPointSubset(points, target)
	}

	k := len(points)
	if k > 8 {
		k = 8
	}
	centroids, _ := cluster.KMeans(points, k, rng)
	if len(centroids) == 0 {
		centroids = points
	}

	out := make([]cluster.Point, len(points), target)
	copy(out, points)
	for len(out) < target {
		center := centroids[rng.Intn(len(centroids))]
		out = append(out, cluster.Point{
			X: clampUnit(center.X + (rng.Float64()-0.5)*0.1),
			Y: clampUnit(center.Y + (rng.Float64()-0.5)*0.1),
		})
	}
	return out
}

// applyDistribution reshapes the point set per the selected mode.
func applyDistribution(points []cluster.Point, opts RetargetOptions, rng *rand.Rand) []cluster.Point {
	switch opts.Mode {
	case DistributionGrid:
		cells := opts.GridCells
		if cells <= 0 {
			cells = 8
		}
		return cluster.SnapToGrid(points, cells, 0.25/float64(cells), rng)
	case DistributionPathAligned:
		if len(opts.Paths) == 0 {
			return points
		}
		maxDist := opts.PathSnapDistance
		if maxDist <= 0 {
			maxDist = 0.25
		}
		return cluster.ProjectToPaths(points, opts.Paths, maxDist)
	case DistributionFeatureAdaptive:
		if len(opts.Features) == 0 {
			return points
		}
		return cluster.FillFeatures(opts.Features, len(points), rng)
	case DistributionSpread:
		return cluster.SpreadPoints(points, spreadRadius)
	default:
		return points
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
