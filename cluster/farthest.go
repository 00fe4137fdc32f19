package cluster

import "math"

// unitCenter is the reference point for farthest-point selection over
// the unit square.
var unitCenter = Point{X: 0.5, Y: 0.5}

// FarthestPointSubset selects up to n points that spread evenly across
// the candidate set: the walk starts at the point nearest the unit
// square's center and each further pick maximizes its minimum distance
// to everything already selected. The result keeps the selection order.
//
// Arguments:
//   - candidates: The points to choose from. Not mutated.
//   - n: How many points to select.
//
// Returns:
//   - []Point: At most n points; all candidates when n exceeds the
//     candidate count.
func FarthestPointSubset(candidates []Point, n int) []Point {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}
	if n >= len(candidates) {
		out := make([]Point, len(candidates))
		copy(out, candidates)
		return out
	}

	chosen := make([]bool, len(candidates))
	selected := make([]Point, 0, n)

	// Anchor at the candidate nearest the center.
	first := 0
	bestDist := math.MaxFloat64
	for i, p := range candidates {
		if d := p.Dist(unitCenter); d < bestDist {
			bestDist = d
			first = i
		}
	}
	chosen[first] = true
	selected = append(selected, candidates[first])

	// minDist[i] tracks each candidate's distance to the nearest selected
	// point, updated incrementally instead of rescanning the selection.
	minDist := make([]float64, len(candidates))
	for i, p := range candidates {
		minDist[i] = p.Dist(candidates[first])
	}

	for len(selected) < n {
		next := -1
		farthest := -1.0
		for i := range candidates {
			if chosen[i] {
				continue
			}
			if minDist[i] > farthest {
				farthest = minDist[i]
				next = i
			}
		}
		if next < 0 {
			break
		}

		chosen[next] = true
		selected = append(selected, candidates[next])
		for i, p := range candidates {
			if chosen[i] {
				continue
			}
			if d := p.Dist(candidates[next]); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	return selected
}
