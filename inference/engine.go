// Package inference - the boundary to the model runtime. The analysis
// core consumes named output buffers and owns no model weights.
package inference

import (
	"context"

	"gorgonia.org/tensor"
)

// Named output buffers an engine may produce. A model is not required to
// produce all of them; consumers check for the names they need.
const (
	// OutputScores is the raw detection score buffer, shape [1, N, C].
	OutputScores = "scores"
	// OutputClassPredictions is a per-class probability vector.
	OutputClassPredictions = "class_predictions"
	// OutputHeightMap is a per-pixel height field, shape [1, h, w].
	OutputHeightMap = "height_map"
	// OutputClassification is the two-way terrain/object score pair.
	OutputClassification = "classification"
	// OutputMasks is the mask prototype buffer, shape [1, P, h, w].
	OutputMasks = "masks"
)

// Engine executes a model over one prepared input buffer and returns its
// named outputs. Implementations own the runtime session; callers own
// the returned tensors.
type Engine interface {
	// Outputs runs the model. The input layout is model-specific; the
	// preprocessors in this package produce NCHW float32.
	Outputs(ctx context.Context, input *tensor.Dense) (map[string]*tensor.Dense, error)

	// Close releases the engine's runtime resources.
	Close() error
}
