// Package inference - ONNX Runtime sessions.
package inference

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// TensorSpec names one model tensor and its fixed shape.
type TensorSpec struct {
	Name  string  `json:"name" yaml:"name"`
	Shape []int64 `json:"shape" yaml:"shape"`
}

// Session is an Engine backed by an ONNX Runtime advanced session with
// pre-allocated input and output tensors. A Session is safe for
// concurrent use; runs are serialized over the shared tensors.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
	names   []string
	mu      sync.Mutex
}

// NewSession loads a model and allocates its input and output tensors.
//
// Arguments:
//   - modelPath: Path to the ONNX model file.
//   - input: Name and shape of the model's input tensor.
//   - outputs: Names and shapes of the outputs to capture.
//
// Returns:
//   - *Session: The ready session; callers must Close it.
//   - error: An error if tensor allocation or session creation fails.
func NewSession(modelPath string, input TensorSpec, outputs []TensorSpec) (*Session, error) {
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(input.Shape...))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate input tensor %q", input.Name)
	}

	s := &Session{input: inputTensor}
	outputTensors := make([]ort.ArbitraryTensor, 0, len(outputs))
	for _, spec := range outputs {
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(spec.Shape...))
		if err != nil {
			s.destroyTensors()
			return nil, errors.Wrapf(err, "failed to allocate output tensor %q", spec.Name)
		}
		s.outputs = append(s.outputs, out)
		s.names = append(s.names, spec.Name)
		outputTensors = append(outputTensors, out)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{input.Name},
		s.names,
		[]ort.ArbitraryTensor{inputTensor},
		outputTensors,
		nil,
	)
	if err != nil {
		s.destroyTensors()
		return nil, errors.Wrapf(err, "failed to create session for %s", modelPath)
	}
	s.session = session
	return s, nil
}

// Outputs copies the input buffer into the session, runs the model and
// returns each named output as a freshly-allocated tensor.
//
// Arguments:
//   - ctx: Checked before the run; a session run itself is not
//     interruptible.
//   - input: Float32 input matching the session's input tensor size.
//
// Returns:
//   - map[string]*tensor.Dense: One entry per configured output.
//   - error: An error on size mismatch, cancellation or run failure.
func (s *Session) Outputs(ctx context.Context, input *tensor.Dense) (map[string]*tensor.Dense, error) {
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, errors.New("input buffer must hold float32 data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dst := s.input.GetData()
	if len(data) != len(dst) {
		return nil, errors.Errorf(
			"input holds %d floats, session expects %d", len(data), len(dst),
		)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	copy(dst, data)
	if err := s.session.Run(); err != nil {
		return nil, errors.Wrap(err, "session run failed")
	}

	results := make(map[string]*tensor.Dense, len(s.outputs))
	for i, out := range s.outputs {
		shape := out.GetShape()
		dims := make([]int, len(shape))
		for d, v := range shape {
			dims[d] = int(v)
		}
		buf := make([]float32, len(out.GetData()))
		copy(buf, out.GetData())
		results[s.names[i]] = tensor.New(tensor.WithShape(dims...), tensor.WithBacking(buf))
	}
	return results, nil
}

// Close releases the session and its tensors.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Destroy()
		s.session = nil
	}
	s.destroyTensors()
	return nil
}

func (s *Session) destroyTensors() {
	if s.input != nil {
		s.input.Destroy()
		s.input = nil
	}
	for _, out := range s.outputs {
		out.Destroy()
	}
	s.outputs = nil
}
