// Package images - Image processing utilities
package images

// Rect is a lightweight axis-aligned bounding box in pixel coordinates.
//
// Detections coming out of a decoder carry fractional pixel coordinates,
// so the box is stored as float32 rather than snapping to an integral
// grid. X2,Y2 are exclusive (like image.Rectangle).
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// FromCenter builds a Rect from a center point and extents, converting
// the (cx, cy, w, h) encoding used by detection model outputs into a
// top-left-origin rectangle.
//
// Arguments:
//   - cx, cy: The center of the box.
//   - w, h: The width and height of the box.
//
// Returns:
//   - Rect: The equivalent corner-encoded rectangle.
func FromCenter(cx, cy, w, h float32) Rect {
	return Rect{
		X1: cx - w/2,
		Y1: cy - h/2,
		X2: cx + w/2,
		Y2: cy + h/2,
	}
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float32 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float32 { return r.Y2 - r.Y1 }

// Area returns the area of the rectangle in square pixels. Degenerate
// rectangles (zero or negative extent) have area 0.
func (r Rect) Area() float32 {
	w := r.Width()
	h := r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the center point of the rectangle.
func (r Rect) Center() (float32, float32) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Union returns the smallest rectangle containing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
		X2: max(r.X2, o.X2),
		Y2: max(r.Y2, o.Y2),
	}
}

// Intersect returns the overlapping region of r and o. When the two
// rectangles do not overlap the result has zero or negative extent and
// Area() reports 0.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
		X2: min(r.X2, o.X2),
		Y2: min(r.Y2, o.Y2),
	}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X1 && x < r.X2 && y >= r.Y1 && y < r.Y2
}

// Clamp restricts the rectangle to the bounds of a width x height frame.
func (r Rect) Clamp(width, height float32) Rect {
	return Rect{
		X1: Clamp32(r.X1, 0, width),
		Y1: Clamp32(r.Y1, 0, height),
		X2: Clamp32(r.X2, 0, width),
		Y2: Clamp32(r.Y2, 0, height),
	}
}

// CalculateIoU computes the Intersection over Union of two rectangles.
//
// IoU measures the extent of overlap between two boxes:
//
//	IoU = Area of Intersection / Area of Union
//
//	- A value of 1.0 means the rectangles are identical.
//	- A value of 0.0 means the rectangles do not overlap at all.
//
// The union is computed with the Principle of Inclusion-Exclusion:
//
//	Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
// The metric drives Non-Maximum Suppression and the segment-merge pass,
// where boxes above a given IoU are considered duplicates of the same
// underlying region.
//
// Arguments:
//   - r: The first rectangle.
//   - o: The other rectangle to compare against.
//
// Returns:
//   - float32: A value in [0, 1]. Returns 0 when the union is empty, so
//     two degenerate rectangles never divide by zero.
func CalculateIoU(r, o Rect) float32 {
	inter := r.Intersect(o).Area()
	if inter <= 0 {
		return 0
	}
	union := r.Area() + o.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
