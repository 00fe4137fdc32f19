package regions

import (
	"image"
	"image/color"

	"github.com/mapscene-ai/go-scene/images"
)

// Segment composes a detection with an optional pixel-precision mask.
//
// The mask, when present, is normalized to Box: mask coordinate (0, 0)
// maps to (Box.X1, Box.Y1) and the mask's far corner to (Box.X2, Box.Y2).
// Box may differ from Detection.Box when a refinement pass tightened it.
type Segment struct {
	Detection Detection
	// Box is the segment's bounding box, possibly refined past the
	// detection's.
	Box images.Rect
	// Mask encodes per-pixel membership; nil means the bounding box is the
	// region.
	Mask *images.Mask
	// Color is a visualization tag assigned by the pipeline.
	Color color.RGBA
	// IsTerrain is set by the binary classification stage.
	IsTerrain bool
	// EstimatedHeight is the scaled terrain elevation; zero for objects.
	EstimatedHeight float32
}

// NewSegment builds a segment from a detection, inheriting the
// detection's bounding box.
func NewSegment(det Detection) *Segment {
	return &Segment{Detection: det, Box: det.Box}
}

// Area returns the pixel count inside the mask, or the bounding box area
// when no mask is present.
func (s *Segment) Area() float32 {
	if s.Mask == nil {
		return s.Box.Area()
	}
	// Mask pixels are in mask resolution; scale the count to box area so
	// segments with differently sized masks compare fairly.
	maskPixels := float32(s.Mask.Width * s.Mask.Height)
	if maskPixels == 0 {
		return 0
	}
	coverage := float32(s.Mask.Area()) / maskPixels
	return coverage * s.Box.Area()
}

// ContainsPoint reports whether the image-space point (x, y) lies inside
// the segment. Points outside the bounding box are rejected early; with
// no mask, box containment suffices; otherwise the point is mapped into
// mask pixel space (floored, clamped to valid indices) and the alpha is
// thresholded.
func (s *Segment) ContainsPoint(x, y float32) bool {
	if !s.Box.Contains(x, y) {
		return false
	}
	if s.Mask == nil {
		return true
	}

	w := s.Box.Width()
	h := s.Box.Height()
	if w <= 0 || h <= 0 {
		return false
	}

	mx := int((x - s.Box.X1) / w * float32(s.Mask.Width))
	my := int((y - s.Box.Y1) / h * float32(s.Mask.Height))
	return s.Mask.Inside(mx, my)
}

// MaskIoU computes the pixel-precision Intersection over Union of two
// segments over the intersection of their bounding boxes.
//
// Each pixel of the intersection is mapped into both segments' own
// normalized mask frames, sampled bilinearly, and thresholded; the
// inside/inside and inside-either counts form the ratio. When either
// segment has no mask the caller should fall back to rectangle IoU —
// this function reports that case by returning -1.
//
// Arguments:
//   - a, b: The segments to compare.
//
// Returns:
//   - float32: IoU in [0, 1], 0 when the union is empty, or -1 when a
//     mask is missing on either side.
func MaskIoU(a, b *Segment) float32 {
	if a.Mask == nil || b.Mask == nil {
		return -1
	}

	inter := a.Box.Intersect(b.Box)
	if inter.Area() <= 0 {
		return 0
	}

	aw := a.Box.Width()
	ah := a.Box.Height()
	bw := b.Box.Width()
	bh := b.Box.Height()
	if aw <= 0 || ah <= 0 || bw <= 0 || bh <= 0 {
		return 0
	}

	x0 := int(inter.X1)
	y0 := int(inter.Y1)
	x1 := int(inter.X2 + 0.5)
	y1 := int(inter.Y2 + 0.5)

	var intersection, union int
	for py := y0; py < y1; py++ {
		for px := x0; px < x1; px++ {
			cx := float32(px) + 0.5
			cy := float32(py) + 0.5

			inA := a.Mask.SampleBilinear((cx-a.Box.X1)/aw, (cy-a.Box.Y1)/ah) >= images.MaskThreshold
			inB := b.Mask.SampleBilinear((cx-b.Box.X1)/bw, (cy-b.Box.Y1)/bh) >= images.MaskThreshold

			if inA && inB {
				intersection++
			}
			if inA || inB {
				union++
			}
		}
	}

	if union == 0 {
		return 0
	}
	return float32(intersection) / float32(union)
}

// Overlap measures the overlap between two segments: mask IoU when both
// carry masks, rectangle IoU otherwise.
func Overlap(a, b *Segment) float32 {
	if iou := MaskIoU(a, b); iou >= 0 {
		return iou
	}
	return images.CalculateIoU(a.Box, b.Box)
}

// Crop extracts the segment's sub-image from a source raster, clamped to
// the raster bounds. When applyMask is true and the segment has a mask,
// the mask alpha is composited into the crop's alpha channel (resampling
// the mask to the crop size when dimensions differ).
//
// Arguments:
//   - src: The source raster.
//   - applyMask: Whether to composite the mask into the crop alpha.
//
// Returns:
//   - *image.RGBA: A fresh crop with origin (0, 0); never nil.
func (s *Segment) Crop(src image.Image, applyMask bool) *image.RGBA {
	crop := images.Crop(src, s.Box)
	if applyMask && s.Mask != nil {
		images.CompositeMaskAlpha(crop, s.Mask)
	}
	return crop
}

// Clone returns a deep copy of the segment.
func (s *Segment) Clone() *Segment {
	out := *s
	out.Detection = *s.Detection.Clone()
	if s.Mask != nil {
		out.Mask = s.Mask.Clone()
	}
	return &out
}
