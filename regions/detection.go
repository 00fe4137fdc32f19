// Package regions - detected region and segment entities shared by the
// decode, merge and analysis stages.
package regions

import (
	"fmt"

	"github.com/mapscene-ai/go-scene/images"
)

// DefaultOverlapIoU is the rectangle IoU above which two detections are
// considered the same region.
const DefaultOverlapIoU = 0.5

// Detection represents a single detected box produced by the decoder.
//
// A detection is immutable once created except through Merge, which
// callers use to fold duplicate boxes into a single survivor. The
// bounding box uses a top-left origin in pixel units.
type Detection struct {
	// ClassID is the model's class index for this detection.
	ClassID int `json:"class_id" yaml:"class_id"`
	// ClassName is the human-readable class label.
	ClassName string `json:"class_name" yaml:"class_name"`
	// Confidence is the detection score in [0, 1].
	Confidence float32 `json:"confidence" yaml:"confidence"`
	// Box is the bounding box in pixel coordinates.
	Box images.Rect `json:"box" yaml:"box"`
	// ClassScores optionally carries per-class scores beyond the argmax.
	ClassScores map[string]float32 `json:"class_scores,omitempty" yaml:"class_scores,omitempty"`
	// Metadata carries collaborator-supplied values with no fixed key set.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	// Description is an optional free-text label from the description
	// enhancement collaborator.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Center returns the center of the detection's bounding box.
func (d *Detection) Center() (float32, float32) {
	return d.Box.Center()
}

// Area returns the bounding box area in square pixels.
func (d *Detection) Area() float32 {
	return d.Box.Area()
}

// String formats the detection for display.
func (d *Detection) String() string {
	return fmt.Sprintf("Object %s (confidence %f): (%f, %f), (%f, %f)",
		d.ClassName, d.Confidence, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
}

// OverlapsWith reports whether the rectangle IoU between this detection
// and another reaches the given threshold.
//
// Arguments:
//   - other: The detection to compare against.
//   - iouThreshold: The minimum IoU that counts as an overlap
//     (DefaultOverlapIoU when unsure).
//
// Returns:
//   - bool: True iff IoU(d.Box, other.Box) >= iouThreshold.
func (d *Detection) OverlapsWith(other *Detection, iouThreshold float32) bool {
	return images.CalculateIoU(d.Box, other.Box) >= iouThreshold
}

// Merge folds another detection into this one. The receiver is
// privileged: on conflicts its values win unless the options below say
// otherwise, so callers must be consistent about merge direction.
//
//   - mergeConfidence: when true and other scores higher, the receiver
//     adopts other's ClassID, ClassName and Confidence.
//   - mergeBox: when true the box becomes the axis-aligned union of both
//     boxes.
//
// Class scores keep the larger value per key (inserting missing keys).
// Metadata is a union where existing entries win on key conflict. The
// longer non-empty description survives.
func (d *Detection) Merge(other *Detection, mergeConfidence, mergeBox bool) {
	if other == nil {
		return
	}

	if mergeConfidence && other.Confidence > d.Confidence {
		d.ClassID = other.ClassID
		d.ClassName = other.ClassName
		d.Confidence = other.Confidence
	}

	if mergeBox {
		d.Box = d.Box.Union(other.Box)
	}

	if len(other.ClassScores) > 0 {
		if d.ClassScores == nil {
			d.ClassScores = make(map[string]float32, len(other.ClassScores))
		}
		for name, score := range other.ClassScores {
			if existing, ok := d.ClassScores[name]; !ok || score > existing {
				d.ClassScores[name] = score
			}
		}
	}

	if len(other.Metadata) > 0 {
		if d.Metadata == nil {
			d.Metadata = make(map[string]any, len(other.Metadata))
		}
		for key, value := range other.Metadata {
			if _, ok := d.Metadata[key]; !ok {
				d.Metadata[key] = value
			}
		}
	}

	if len(other.Description) > len(d.Description) {
		d.Description = other.Description
	}
}

// Clone returns a deep copy of the detection, including its maps.
func (d *Detection) Clone() *Detection {
	out := *d
	if d.ClassScores != nil {
		out.ClassScores = make(map[string]float32, len(d.ClassScores))
		for k, v := range d.ClassScores {
			out.ClassScores[k] = v
		}
	}
	if d.Metadata != nil {
		out.Metadata = make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
