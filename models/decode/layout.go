// Package decode - converts raw detection-model output tensors into
// detection lists.
package decode

// Layout identifies one of the known per-row value layouts of a
// detection head's output tensor. Rows are C values wide; the first four
// are always the box in (cx, cy, w, h) encoding.
type Layout int

const (
	// LayoutAuto selects a layout heuristically from the tensor shape and
	// a sample of values.
	LayoutAuto Layout = iota
	// LayoutSegmentation is box(4) + class scores + mask coefficients
	// (wide rows, C >= 100). No explicit objectness.
	LayoutSegmentation
	// LayoutDetect is box(4) + class scores (C >= 85). No explicit
	// objectness.
	LayoutDetect
	// LayoutDetectV2 is box(4) + objectness(1) + precomputed max
	// score(1) + class scores.
	LayoutDetectV2
	// LayoutGenericObjectness is box(4) + objectness(1) + class scores,
	// chosen when probing finds a probability-like column 4.
	LayoutGenericObjectness
	// LayoutGenericScores is box(4) + class scores, chosen when probing
	// finds column 4 outside [0, 1].
	LayoutGenericScores
)

// maskCoefficients is the fixed width of the mask-coefficient block in
// segmentation-style rows.
const maskCoefficients = 32

// probeRows is how many rows the generic heuristic samples when probing
// column 4.
const probeRows = 32

// String names the layout for log messages.
func (l Layout) String() string {
	switch l {
	case LayoutAuto:
		return "auto"
	case LayoutSegmentation:
		return "segmentation"
	case LayoutDetect:
		return "detect"
	case LayoutDetectV2:
		return "detect-v2"
	case LayoutGenericObjectness:
		return "generic-objectness"
	case LayoutGenericScores:
		return "generic-scores"
	default:
		return "unknown"
	}
}

// DetectLayout guesses the row layout from the row width and a sample of
// values. The heuristics mirror the output conventions of the model
// families this pipeline is run against, checked in priority order:
//
//  1. C >= 100: segmentation rows (class scores plus mask coefficients).
//  2. C >= 85: plain detect rows (class scores, no objectness).
//  3. C >= 86: detect-v2 rows. This arm is shadowed by the previous one
//     and is only selectable by passing LayoutDetectV2 explicitly; it is
//     kept so the explicit override has defined semantics.
//  4. Otherwise probe column 4 over a row sample: a mean inside [0, 1]
//     reads as an objectness score (class scores start at column 5),
//     anything else means class scores start at column 4 directly.
//
// These are statistical guesses, not a contract; a caller that knows its
// model should set the layout explicitly rather than rely on them.
//
// Arguments:
//   - columns: The per-row value count C.
//   - rows: The candidate row count N.
//   - at: Accessor for the value at (row, column).
//
// Returns:
//   - Layout: The selected layout; never LayoutAuto.
func DetectLayout(columns, rows int, at func(row, col int) float32) Layout {
	switch {
	case columns >= 100:
		return LayoutSegmentation
	case columns >= 85:
		return LayoutDetect
	case columns >= 86:
		return LayoutDetectV2
	}

	sample := rows
	if sample > probeRows {
		sample = probeRows
	}
	if sample == 0 || columns <= 4 {
		return LayoutGenericScores
	}

	var sum float32
	for i := 0; i < sample; i++ {
		sum += at(i, 4)
	}

	if mean := sum / float32(sample); mean >= 0 && mean <= 1 {
		return LayoutGenericObjectness
	}
	return LayoutGenericScores
}

// scoreRange returns the column span [start, end) of the class scores
// and the objectness column (-1 when the layout has none) for a layout
// over rows of width columns.
func (l Layout) scoreRange(columns int) (start, end, objectness int) {
	switch l {
	case LayoutSegmentation:
		end = columns - maskCoefficients
		if end <= 4 {
			end = columns
		}
		return 4, end, -1
	case LayoutDetect:
		return 4, columns, -1
	case LayoutDetectV2:
		return 6, columns, 4
	case LayoutGenericObjectness:
		return 5, columns, 4
	default:
		return 4, columns, -1
	}
}
