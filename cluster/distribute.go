package cluster

import (
	"math"
	"math/rand"

	"github.com/mapscene-ai/go-scene/images"
)

// Polyline is an ordered sequence of vertices describing a path (a road,
// river or similar linear feature) in the same coordinate space as the
// points being distributed.
type Polyline []Point

// MaskedRegion is a feature's footprint: a bounding box plus an optional
// membership mask normalized to that box. A nil mask means the whole box
// belongs to the feature.
type MaskedRegion struct {
	Box  images.Rect
	Mask *images.Mask
}

// contains reports whether a point lies inside the region, consulting
// the mask when present.
func (r MaskedRegion) contains(p Point) bool {
	if !r.Box.Contains(float32(p.X), float32(p.Y)) {
		return false
	}
	if r.Mask == nil {
		return true
	}
	w := r.Box.Width()
	h := r.Box.Height()
	if w <= 0 || h <= 0 {
		return false
	}
	mx := int((float32(p.X) - r.Box.X1) / w * float32(r.Mask.Width))
	my := int((float32(p.Y) - r.Box.Y1) / h * float32(r.Mask.Height))
	return r.Mask.Inside(mx, my)
}

// SnapToGrid redistributes points onto a uniform cells x cells grid over
// the unit square, jittering each snapped point by at most jitter in
// each axis so the layout does not read as mechanical. Duplicate grid
// cells collapse, so the result may be shorter than the input.
//
// Arguments:
//   - points: The points to snap.
//   - cells: Grid resolution per axis; values below 1 degrade to 1.
//   - jitter: Maximum absolute offset applied after snapping.
//   - rng: Random source for the jitter.
//
// Returns:
//   - []Point: The snapped points, one per occupied cell, in first-seen
//     cell order.
func SnapToGrid(points []Point, cells int, jitter float64, rng *rand.Rand) []Point {
	if len(points) == 0 {
		return nil
	}
	if cells < 1 {
		cells = 1
	}

	step := 1.0 / float64(cells)
	seen := make(map[int]bool, len(points))
	out := make([]Point, 0, len(points))

	for _, p := range points {
		cx := int(p.X / step)
		cy := int(p.Y / step)
		if cx >= cells {
			cx = cells - 1
		}
		if cy >= cells {
			cy = cells - 1
		}
		key := cy*cells + cx
		if seen[key] {
			continue
		}
		seen[key] = true

		snapped := Point{
			X: (float64(cx)+0.5)*step + (rng.Float64()*2-1)*jitter,
			Y: (float64(cy)+0.5)*step + (rng.Float64()*2-1)*jitter,
		}
		snapped.X = math.Max(0, math.Min(1, snapped.X))
		snapped.Y = math.Max(0, math.Min(1, snapped.Y))
		out = append(out, snapped)
	}

	return out
}

// ProjectToPaths moves each point onto the nearest segment of the
// nearest polyline. Points farther than maxDistance from every path are
// dropped; maxDistance <= 0 keeps everything.
//
// Arguments:
//   - points: The points to project.
//   - paths: The candidate polylines.
//   - maxDistance: Discard radius around the paths.
//
// Returns:
//   - []Point: The projected points, input order preserved.
func ProjectToPaths(points []Point, paths []Polyline, maxDistance float64) []Point {
	if len(points) == 0 || len(paths) == 0 {
		return nil
	}

	out := make([]Point, 0, len(points))
	for _, p := range points {
		best := p
		bestDist := math.MaxFloat64
		for _, path := range paths {
			for i := 0; i+1 < len(path); i++ {
				proj := projectOntoSegment(p, path[i], path[i+1])
				if d := p.Dist(proj); d < bestDist {
					bestDist = d
					best = proj
				}
			}
		}
		if bestDist == math.MaxFloat64 {
			continue
		}
		if maxDistance > 0 && bestDist > maxDistance {
			continue
		}
		out = append(out, best)
	}
	return out
}

// SpreadPoints pushes crowded points apart while keeping the layout
// recognizable. Each input point contributes itself and four diagonal
// offsets at the given radius (clamped to the unit square) to a candidate
// pool, and a farthest-point walk over the pool picks one candidate per
// input, so near-coincident inputs end up separated by roughly the
// offset distance.
//
// Arguments:
//   - points: The points to spread, in unit coordinates.
//   - radius: The offset distance. Non-positive radii leave points as-is.
//
// Returns:
//   - []Point: len(points) spread points, nil for empty input.
func SpreadPoints(points []Point, radius float64) []Point {
	if len(points) == 0 {
		return nil
	}
	if radius <= 0 {
		out := make([]Point, len(points))
		copy(out, points)
		return out
	}

	offsets := [4][2]float64{{radius, radius}, {radius, -radius}, {-radius, radius}, {-radius, -radius}}
	pool := make([]Point, 0, len(points)*5)
	pool = append(pool, points...)
	for _, p := range points {
		for _, off := range offsets {
			pool = append(pool, Point{
				X: math.Max(0, math.Min(1, p.X+off[0])),
				Y: math.Max(0, math.Min(1, p.Y+off[1])),
			})
		}
	}
	return FarthestPointSubset(pool, len(points))
}

// projectOntoSegment returns the closest point to p on segment ab.
func projectOntoSegment(p, a, b Point) Point {
	abx := b.X - a.X
	aby := b.Y - a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return a
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Point{X: a.X + t*abx, Y: a.Y + t*aby}
}

// maxFeatureSampleAttempts bounds rejection sampling per requested point
// in FillFeatures.
const maxFeatureSampleAttempts = 32

// FillFeatures generates up to n points constrained to lie inside the
// given feature regions (bounding box plus mask). Regions are cycled in
// proportion to the requested count; each point is rejection-sampled
// inside its region's box against the mask.
//
// Arguments:
//   - features: The regions points must fall inside.
//   - n: How many points to generate.
//   - rng: Random source.
//
// Returns:
//   - []Point: At most n points, fewer when sampling keeps missing thin
//     masks.
func FillFeatures(features []MaskedRegion, n int, rng *rand.Rand) []Point {
	if n <= 0 || len(features) == 0 {
		return nil
	}

	out := make([]Point, 0, n)
	for i := 0; i < n; i++ {
		region := features[i%len(features)]
		if region.Box.Area() <= 0 {
			continue
		}
		for attempt := 0; attempt < maxFeatureSampleAttempts; attempt++ {
			p := Point{
				X: float64(region.Box.X1) + rng.Float64()*float64(region.Box.Width()),
				Y: float64(region.Box.Y1) + rng.Float64()*float64(region.Box.Height()),
			}
			if region.contains(p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
