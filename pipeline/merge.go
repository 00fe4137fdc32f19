package pipeline

import (
	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// MergeOverlapping folds segments of the same source class whose
// rectangle IoU exceeds the threshold into single segments.
//
// Grouping is transitive through the group's growing membership: a
// segment joins a group when it overlaps any member already in it. Each
// group's survivor keeps the identity (class, confidence, metadata) of
// its highest-confidence member, takes the union bounding box, and gets
// a merged mask where every output pixel holds the maximum alpha across
// all member masks remapped into the union frame.
//
// Arguments:
//   - segments: The segments to deduplicate. Not mutated.
//   - iouThreshold: The rectangle IoU above which same-class segments
//     merge.
//
// Returns:
//   - []*regions.Segment: One segment per group, in group discovery
//     order.
func MergeOverlapping(segments []*regions.Segment, iouThreshold float32) []*regions.Segment {
	if len(segments) == 0 {
		return nil
	}

	claimed := make([]bool, len(segments))
	merged := make([]*regions.Segment, 0, len(segments))

	for i := range segments {
		if claimed[i] {
			continue
		}
		claimed[i] = true
		group := []*regions.Segment{segments[i]}

		// Grow the group until no more segments join.
		for {
			grew := false
			for j := range segments {
				if claimed[j] {
					continue
				}
				if segments[j].Detection.ClassName != segments[i].Detection.ClassName {
					continue
				}
				for _, member := range group {
					if images.CalculateIoU(segments[j].Box, member.Box) > iouThreshold {
						claimed[j] = true
						group = append(group, segments[j])
						grew = true
						break
					}
				}
			}
			if !grew {
				break
			}
		}

		merged = append(merged, mergeGroup(group))
	}

	return merged
}

// mergeGroup collapses a group into one segment: union box, best
// member's identity, max-alpha mask.
func mergeGroup(group []*regions.Segment) *regions.Segment {
	if len(group) == 1 {
		return group[0].Clone()
	}

	best := group[0]
	union := group[0].Box
	for _, member := range group[1:] {
		union = union.Union(member.Box)
		if member.Detection.Confidence > best.Detection.Confidence {
			best = member
		}
	}

	out := best.Clone()
	out.Box = union
	out.Detection.Box = union
	out.Mask = mergeMasks(group, union)
	return out
}

// maxMergedMaskDim caps the merged mask resolution; the union of many
// boxes can be large and the mask only needs enough precision for
// overlap tests.
const maxMergedMaskDim = 256

// mergeMasks synthesizes the union-frame mask. Members without a mask
// contribute their whole box as solid coverage. Returns nil when no
// member carries a mask, preserving the box-only representation.
func mergeMasks(group []*regions.Segment, union images.Rect) *images.Mask {
	hasMask := false
	for _, member := range group {
		if member.Mask != nil {
			hasMask = true
			break
		}
	}
	if !hasMask {
		return nil
	}

	w := int(union.Width() + 0.5)
	h := int(union.Height() + 0.5)
	if w > maxMergedMaskDim {
		w = maxMergedMaskDim
	}
	if h > maxMergedMaskDim {
		h = maxMergedMaskDim
	}
	mask := images.NewMask(w, h)
	if mask == nil {
		return nil
	}

	for y := 0; y < h; y++ {
		// Center of the output pixel in image space.
		iy := union.Y1 + (float32(y)+0.5)/float32(h)*union.Height()
		for x := 0; x < w; x++ {
			ix := union.X1 + (float32(x)+0.5)/float32(w)*union.Width()

			var alpha float32
			for _, member := range group {
				if !member.Box.Contains(ix, iy) {
					continue
				}
				var a float32
				if member.Mask == nil {
					a = 1
				} else {
					bw := member.Box.Width()
					bh := member.Box.Height()
					if bw <= 0 || bh <= 0 {
						continue
					}
					a = member.Mask.SampleBilinear((ix-member.Box.X1)/bw, (iy-member.Box.Y1)/bh)
				}
				if a > alpha {
					alpha = a
				}
			}
			mask.Set(x, y, alpha)
		}
	}

	return mask
}
