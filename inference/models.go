package inference

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/mapscene-ai/go-scene/regions"
)

// BinaryModel classifies a crop as terrain or object through an Engine.
// It satisfies the analysis pipeline's binary-classifier contract.
type BinaryModel struct {
	Engine      Engine
	InputWidth  int
	InputHeight int
}

// Scores runs the two-way classifier over a crop.
//
// Arguments:
//   - ctx: Checked before the run.
//   - crop: The segment crop to classify.
//
// Returns:
//   - [2]float32: Terrain score at index 0, object score at index 1.
//   - error: An error if the run fails or the output is malformed.
func (m *BinaryModel) Scores(ctx context.Context, crop image.Image) ([2]float32, error) {
	var scores [2]float32

	out, err := m.run(ctx, crop, OutputClassification)
	if err != nil {
		return scores, err
	}
	data, ok := out.Data().([]float32)
	if !ok || len(data) < 2 {
		return scores, errors.Errorf("classification output must hold at least 2 floats")
	}

	scores[0] = data[0]
	scores[1] = data[1]
	return scores, nil
}

func (m *BinaryModel) run(ctx context.Context, crop image.Image, name string) (*tensor.Dense, error) {
	input, err := PrepareInput(crop, m.InputWidth, m.InputHeight)
	if err != nil {
		return nil, err
	}
	outputs, err := m.Engine.Outputs(ctx, input)
	if err != nil {
		return nil, err
	}
	out, ok := outputs[name]
	if !ok {
		return nil, errors.Errorf("engine produced no %q output", name)
	}
	return out, nil
}

// DetailModel refines a crop into a detail-class index through an
// Engine. It satisfies the pipeline's detail-classifier contract.
type DetailModel struct {
	Engine      Engine
	InputWidth  int
	InputHeight int
}

// ClassIndex arg-maxes the per-class prediction vector.
//
// Returns:
//   - int: Index of the highest-scoring class.
//   - float32: That class's score.
//   - error: An error if the run fails or the vector is empty.
func (m *DetailModel) ClassIndex(ctx context.Context, crop image.Image) (int, float32, error) {
	shim := BinaryModel{Engine: m.Engine, InputWidth: m.InputWidth, InputHeight: m.InputHeight}
	out, err := shim.run(ctx, crop, OutputClassPredictions)
	if err != nil {
		return 0, 0, err
	}
	data, ok := out.Data().([]float32)
	if !ok || len(data) == 0 {
		return 0, 0, errors.New("class prediction output is empty")
	}

	best := 0
	for i, score := range data {
		if score > data[best] {
			best = i
		}
	}
	return best, data[best], nil
}

// HeightModel estimates a per-pixel height field through an Engine. It
// satisfies the pipeline's height-estimator contract.
type HeightModel struct {
	Engine      Engine
	InputWidth  int
	InputHeight int
}

// EstimateHeights runs the height model and reshapes its output into a
// field. Accepts [1, h, w] and [1, 1, h, w] output shapes.
func (m *HeightModel) EstimateHeights(ctx context.Context, crop image.Image) (*regions.HeightField, error) {
	shim := BinaryModel{Engine: m.Engine, InputWidth: m.InputWidth, InputHeight: m.InputHeight}
	out, err := shim.run(ctx, crop, OutputHeightMap)
	if err != nil {
		return nil, err
	}

	shape := out.Shape()
	var h, w int
	switch {
	case len(shape) == 3 && shape[0] == 1:
		h, w = shape[1], shape[2]
	case len(shape) == 4 && shape[0] == 1 && shape[1] == 1:
		h, w = shape[2], shape[3]
	default:
		return nil, errors.Errorf("unexpected height map shape %v", shape)
	}

	data, ok := out.Data().([]float32)
	if !ok || len(data) < h*w {
		return nil, errors.Errorf("height map holds %d floats, expected %d", len(data), h*w)
	}

	field := regions.NewHeightField(w, h)
	copy(field.Samples, data[:h*w])
	return field, nil
}
