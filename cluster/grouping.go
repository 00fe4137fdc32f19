package cluster

import (
	"github.com/mapscene-ai/go-scene/regions"
)

// SimilarityFn measures how alike two segments are, in [0, 1]. The
// default is the pixel-overlap ratio (regions.Overlap); callers with a
// cheaper or richer notion of similarity substitute their own.
type SimilarityFn func(a, b *regions.Segment) float32

// GroupBySimilarity collapses near-duplicate analyzed objects into
// groups behind a single representative.
//
// The pass is single and ordered: each object starts a new group unless
// an earlier group already claimed it; when a group is started, every
// later unclaimed object of the same coarse type whose similarity to
// the group seed exceeds the threshold joins immediately. Segment order
// inside a group is discovery order, so the seed is always first.
//
// Arguments:
//   - objs: The analyzed objects to group.
//   - threshold: Similarity above which an object joins a group.
//   - sim: Similarity measure; nil uses regions.Overlap.
//
// Returns:
//   - []regions.ObjectGrouping: One group per representative, ordered by
//     seed discovery.
func GroupBySimilarity(
	objs []*regions.AnalyzedSegment,
	threshold float32,
	sim SimilarityFn,
) []regions.ObjectGrouping {
	if len(objs) == 0 {
		return nil
	}
	if sim == nil {
		sim = func(a, b *regions.Segment) float32 { return regions.Overlap(a, b) }
	}

	claimed := make([]bool, len(objs))
	groups := make([]regions.ObjectGrouping, 0, len(objs))

	for i, seed := range objs {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		group := regions.ObjectGrouping{
			GroupID:    len(groups),
			ObjectType: seed.ObjectType,
			Segments:   []*regions.AnalyzedSegment{seed},
		}

		for j := i + 1; j < len(objs); j++ {
			if claimed[j] {
				continue
			}
			candidate := objs[j]
			if candidate.ObjectType != seed.ObjectType {
				continue
			}
			if sim(seed.Segment, candidate.Segment) > threshold {
				claimed[j] = true
				group.Segments = append(group.Segments, candidate)
			}
		}

		groups = append(groups, group)
	}

	return groups
}
