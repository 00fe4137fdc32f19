// Package postprocess - Non-Maximum Suppression for decoded detections.
package postprocess

import (
	"sort"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

// NMSConfig defines parameters for Non-Maximum Suppression.
type NMSConfig struct {
	// IoUThreshold is the overlap above which the lower-scoring box is
	// suppressed.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// ClassAware restricts suppression to detections of the same class.
	ClassAware bool `json:"class_aware" yaml:"class_aware"`
	// MaxPerClass caps the kept detections per class when positive; only
	// meaningful together with ClassAware.
	MaxPerClass int `json:"max_per_class" yaml:"max_per_class"`
}

// SortByConfidence orders detections by descending confidence in place,
// breaking ties by original position so repeated runs over the same
// input are stable.
func SortByConfidence(detections []regions.Detection) {
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
}

// ApplyGreedyNMS performs standard greedy Non-Maximum Suppression.
//
// The input is sorted by descending confidence; the highest-scoring
// remaining candidate is kept and every other candidate whose IoU with
// it exceeds the threshold is discarded, until no candidates remain.
// Running the function twice over its own output changes nothing: every
// surviving pair already has IoU at or below the threshold.
//
// Arguments:
//   - detections: Candidate detections in any order. Not mutated.
//   - config: Suppression parameters.
//
// Returns:
//   - Filtered detections in descending confidence order. Nil input
//     yields nil.
func ApplyGreedyNMS(detections []regions.Detection, config *NMSConfig) []regions.Detection {
	n := len(detections)
	if n == 0 {
		return nil
	}

	sorted := make([]regions.Detection, n)
	copy(sorted, detections)
	SortByConfidence(sorted)

	filtered := make([]regions.Detection, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := sorted[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if config.ClassAware && anchor.ClassID != sorted[j].ClassID {
				continue
			}
			if images.CalculateIoU(anchor.Box, sorted[j].Box) > config.IoUThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}

// ApplyPerClassNMS groups detections by class, suppresses within each
// group independently, optionally caps the per-class keep count, and
// concatenates the survivors grouped by class in first-seen order.
//
// Arguments:
//   - detections: Candidate detections, typically decoded with a zero
//     confidence threshold so weak classes are not starved.
//   - config: Suppression parameters; MaxPerClass > 0 trims each class's
//     survivors after suppression.
//
// Returns:
//   - Filtered detections, per-class suppression applied.
func ApplyPerClassNMS(detections []regions.Detection, config *NMSConfig) []regions.Detection {
	if len(detections) == 0 {
		return nil
	}

	byClass := make(map[int][]regions.Detection)
	classOrder := make([]int, 0)
	for _, det := range detections {
		if _, seen := byClass[det.ClassID]; !seen {
			classOrder = append(classOrder, det.ClassID)
		}
		byClass[det.ClassID] = append(byClass[det.ClassID], det)
	}

	perClass := &NMSConfig{IoUThreshold: config.IoUThreshold}
	out := make([]regions.Detection, 0, len(detections))
	for _, classID := range classOrder {
		kept := ApplyGreedyNMS(byClass[classID], perClass)
		if config.MaxPerClass > 0 && len(kept) > config.MaxPerClass {
			kept = kept[:config.MaxPerClass]
		}
		out = append(out, kept...)
	}
	return out
}
