package decode

import (
	"sort"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/models"
	"github.com/mapscene-ai/go-scene/models/postprocess"
	"github.com/mapscene-ai/go-scene/regions"
)

// Decoder errors. Callers receive an empty detection list alongside
// these; none of them is fatal to the surrounding pipeline.
var (
	// ErrNilBuffer is returned for a nil output tensor.
	ErrNilBuffer = errors.New("decode: nil output buffer")
	// ErrBadShape is returned when the tensor is not rank 3.
	ErrBadShape = errors.New("decode: output buffer must be rank 3 ([1, N, C])")
	// ErrBatchSize is returned when the batch dimension is not 1.
	ErrBatchSize = errors.New("decode: only batch size 1 is supported")
)

// Config holds the decoder's flat parameter set.
type Config struct {
	// ConfidenceThreshold rejects rows scoring below it.
	ConfidenceThreshold float32 `json:"confidence_threshold" yaml:"confidence_threshold"`
	// NMSThreshold is the IoU above which overlapping boxes are
	// suppressed.
	NMSThreshold float32 `json:"nms_threshold" yaml:"nms_threshold"`
	// ImageWidth and ImageHeight scale normalized boxes to pixels.
	ImageWidth  int `json:"image_width" yaml:"image_width"`
	ImageHeight int `json:"image_height" yaml:"image_height"`
	// Layout overrides auto-detection when not LayoutAuto.
	Layout Layout `json:"layout" yaml:"layout"`
	// Classes names the decoded class indices; nil falls back to
	// synthetic labels.
	Classes *models.ClassTable `json:"-" yaml:"-"`
	// MaxCandidates caps the rows entering NMS, keeping the
	// highest-scoring ones. Zero means no cap.
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`
	// KeepClassScores retains every class's score on the detection, not
	// just the argmax.
	KeepClassScores bool `json:"keep_class_scores" yaml:"keep_class_scores"`
}

// Decode converts a raw [1, N, C] score tensor into a deduplicated
// detection list: per-row argmax scoring, confidence filtering, box
// decoding and greedy NMS.
//
// Box decoding follows the (cx, cy, w, h) convention; when all four
// values lie in [0, 1] the box is treated as normalized and scaled by
// the image dimensions, otherwise it is taken as already in pixels.
//
// Arguments:
//   - buf: The model output tensor, float32, shaped [1, N, C].
//   - cfg: Decoder parameters.
//
// Returns:
//   - []regions.Detection: Survivors in descending confidence order.
//     Empty (never nil panic) on any input error.
//   - error: ErrNilBuffer, ErrBadShape or ErrBatchSize for malformed
//     input; nil otherwise.
func Decode(buf *tensor.Dense, cfg Config) ([]regions.Detection, error) {
	candidates, err := decodeCandidates(buf, cfg, cfg.ConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	candidates = capCandidates(candidates, cfg.MaxCandidates)
	return postprocess.ApplyGreedyNMS(candidates, &postprocess.NMSConfig{
		IoUThreshold: cfg.NMSThreshold,
	}), nil
}

// DecodePerClass is the per-class NMS variant: rows are decoded with a
// zero confidence floor, grouped by class, suppressed independently per
// group, optionally capped per class, and concatenated.
//
// Arguments:
//   - buf: The model output tensor.
//   - cfg: Decoder parameters; cfg.ConfidenceThreshold still applies as
//     a post-NMS floor so weak classes are suppressed against their own
//     kind first.
//   - maxPerClass: Keep cap per class (0 for no cap), ordered by
//     confidence with original row order breaking ties.
//
// Returns:
//   - []regions.Detection: Survivors grouped by class.
//   - error: Same failure modes as Decode.
func DecodePerClass(buf *tensor.Dense, cfg Config, maxPerClass int) ([]regions.Detection, error) {
	candidates, err := decodeCandidates(buf, cfg, 0)
	if err != nil {
		return nil, err
	}

	candidates = capCandidates(candidates, cfg.MaxCandidates)
	kept := postprocess.ApplyPerClassNMS(candidates, &postprocess.NMSConfig{
		IoUThreshold: cfg.NMSThreshold,
		ClassAware:   true,
		MaxPerClass:  maxPerClass,
	})

	if cfg.ConfidenceThreshold <= 0 {
		return kept, nil
	}
	out := kept[:0]
	for _, det := range kept {
		if det.Confidence >= cfg.ConfidenceThreshold {
			out = append(out, det)
		}
	}
	return out, nil
}

// decodeCandidates runs the per-row decode shared by both entry points.
func decodeCandidates(buf *tensor.Dense, cfg Config, threshold float32) ([]regions.Detection, error) {
	if buf == nil {
		return nil, ErrNilBuffer
	}

	shape := buf.Shape()
	if len(shape) < 3 {
		return nil, errors.Wrapf(ErrBadShape, "got rank %d", len(shape))
	}
	if shape[0] != 1 {
		return nil, errors.Wrapf(ErrBatchSize, "got batch %d", shape[0])
	}

	data, ok := buf.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("decode: expected float32 buffer, got %T", buf.Data())
	}

	rows := shape[1]
	columns := shape[2]
	if columns < 5 || rows == 0 || len(data) < rows*columns {
		return nil, errors.Wrapf(ErrBadShape, "rows=%d columns=%d len=%d", rows, columns, len(data))
	}

	at := func(row, col int) float32 { return data[row*columns+col] }

	layout := cfg.Layout
	if layout == LayoutAuto {
		layout = DetectLayout(columns, rows, at)
	}
	scoreStart, scoreEnd, objCol := layout.scoreRange(columns)

	results := make([]regions.Detection, 0, rows/8+1)
	for row := 0; row < rows; row++ {
		classID := -1
		maxScore := float32(0)
		for col := scoreStart; col < scoreEnd; col++ {
			if score := at(row, col); score > maxScore {
				maxScore = score
				classID = col - scoreStart
			}
		}
		if classID < 0 {
			continue
		}

		confidence := maxScore
		if objCol >= 0 {
			confidence *= at(row, objCol)
		}
		if confidence < threshold {
			continue
		}

		det := regions.Detection{
			ClassID:    classID,
			ClassName:  cfg.Classes.Name(classID),
			Confidence: confidence,
			Box:        decodeBox(at, row, cfg.ImageWidth, cfg.ImageHeight),
		}

		if cfg.KeepClassScores {
			det.ClassScores = make(map[string]float32, scoreEnd-scoreStart)
			for col := scoreStart; col < scoreEnd; col++ {
				det.ClassScores[cfg.Classes.Name(col-scoreStart)] = at(row, col)
			}
		}

		if layout == LayoutSegmentation && scoreEnd < columns {
			coeffs := make([]float32, columns-scoreEnd)
			for i := range coeffs {
				coeffs[i] = at(row, scoreEnd+i)
			}
			det.Metadata = map[string]any{"mask_coefficients": coeffs}
		}

		results = append(results, det)
	}

	return results, nil
}

// decodeBox reads the (cx, cy, w, h) quadruple of a row and converts it
// to a top-left-origin pixel rectangle, scaling by the image dimensions
// when all four values look normalized.
func decodeBox(at func(row, col int) float32, row, imageWidth, imageHeight int) images.Rect {
	cx := at(row, 0)
	cy := at(row, 1)
	w := at(row, 2)
	h := at(row, 3)

	if normalized(cx) && normalized(cy) && normalized(w) && normalized(h) {
		cx *= float32(imageWidth)
		w *= float32(imageWidth)
		cy *= float32(imageHeight)
		h *= float32(imageHeight)
	}

	return images.FromCenter(cx, cy, w, h)
}

func normalized(v float32) bool {
	return v >= 0 && v <= 1
}

// capCandidates keeps the top-n candidates by confidence before NMS so a
// pathological buffer cannot explode the quadratic suppression pass.
func capCandidates(candidates []regions.Detection, n int) []regions.Detection {
	if n <= 0 || len(candidates) <= n {
		return candidates
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	return candidates[:n]
}
