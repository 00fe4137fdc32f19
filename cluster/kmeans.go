// Package cluster - spatial clustering and placement algorithms for
// retargeting object density. Every routine is a pure function over
// coordinate collections; stochastic ones take an explicit rand source
// so results are reproducible.
package cluster

import (
	"math"
	"math/rand"
)

// Point is a 2D coordinate, normally in the unit square for placement
// work and in pixel space for raw detections.
type Point struct {
	X, Y float64
}

// Dist returns the Euclidean distance between two points.
func (p Point) Dist(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// maxKMeansIterations bounds the Lloyd iteration count.
const maxKMeansIterations = 10

// kmeansEpsilon is the centroid movement below which iteration stops.
const kmeansEpsilon = 1e-4

// KMeans clusters points into at most k groups using k-means with
// farthest-point seeding (the deterministic k-means++ variant): the
// first seed is a uniform random pick, each further seed is the point
// maximizing its minimum distance to the seeds chosen so far.
//
// Lloyd iteration runs up to maxKMeansIterations times, stopping early
// when no centroid moves more than kmeansEpsilon. The assignment cost
// (sum of squared distances to assigned centroids) is non-increasing
// across iterations.
//
// Arguments:
//   - points: The points to cluster.
//   - k: The target cluster count; clamped to len(points).
//   - rng: Random source for the first seed.
//
// Returns:
//   - []Point: The final centroids (at most k).
//   - []int: Per-point centroid assignment, parallel to points.
func KMeans(points []Point, k int, rng *rand.Rand) ([]Point, []int) {
	if len(points) == 0 || k <= 0 {
		return nil, nil
	}
	if k > len(points) {
		k = len(points)
	}

	centroids := seedCentroids(points, k, rng)
	assignments := make([]int, len(points))

	for iter := 0; iter < maxKMeansIterations; iter++ {
		// Assignment step.
		for i, p := range points {
			best := 0
			bestDist := math.MaxFloat64
			for c, centroid := range centroids {
				if d := p.Dist(centroid); d < bestDist {
					bestDist = d
					best = c
				}
			}
			assignments[i] = best
		}

		// Update step.
		sums := make([]Point, len(centroids))
		counts := make([]int, len(centroids))
		for i, p := range points {
			c := assignments[i]
			sums[c].X += p.X
			sums[c].Y += p.Y
			counts[c]++
		}

		moved := false
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			next := Point{X: sums[c].X / float64(counts[c]), Y: sums[c].Y / float64(counts[c])}
			if centroids[c].Dist(next) > kmeansEpsilon {
				moved = true
			}
			centroids[c] = next
		}

		if !moved {
			break
		}
	}

	return centroids, assignments
}

// seedCentroids picks k initial centroids: the first uniformly at
// random, the rest by the farthest-point heuristic.
func seedCentroids(points []Point, k int, rng *rand.Rand) []Point {
	centroids := make([]Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	for len(centroids) < k {
		bestIdx := -1
		bestDist := -1.0
		for i, p := range points {
			minDist := math.MaxFloat64
			for _, c := range centroids {
				if d := p.Dist(c); d < minDist {
					minDist = d
				}
			}
			if minDist > bestDist {
				bestDist = minDist
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		centroids = append(centroids, points[bestIdx])
	}

	return centroids
}

// Cost returns the sum of squared distances from each point to its
// assigned centroid, the quantity k-means minimizes.
func Cost(points, centroids []Point, assignments []int) float64 {
	var cost float64
	for i, p := range points {
		c := centroids[assignments[i]]
		dx := p.X - c.X
		dy := p.Y - c.Y
		cost += dx*dx + dy*dy
	}
	return cost
}
