// Package pipeline - the segment merge, classification and placement
// pipeline turning decoded detections into a scene catalogue.
package pipeline

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mapscene-ai/go-scene/models/decode"
)

// Config is the pipeline's flat parameter set. Everything is plain data;
// an Analyzer gets one of these at construction and nothing reads
// configuration from ambient state.
type Config struct {
	// Decoder holds the detection-decoder parameters.
	Decoder decode.Config `json:"decoder" yaml:"decoder"`

	// MergeIoUThreshold is the rectangle IoU above which same-class
	// segments are merged into one.
	MergeIoUThreshold float32 `json:"merge_iou_threshold" yaml:"merge_iou_threshold"`
	// SimilarityThreshold is the mask-overlap ratio above which analyzed
	// objects collapse into a group.
	SimilarityThreshold float32 `json:"similarity_threshold" yaml:"similarity_threshold"`
	// MaxConcurrent caps in-flight per-segment analyses.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
	// MaxTerrainHeight scales the normalized height field to scene units.
	MaxTerrainHeight float32 `json:"max_terrain_height" yaml:"max_terrain_height"`
	// TargetDensity is the multiplier applied when retargeting object
	// counts (1 keeps the detected density).
	TargetDensity float32 `json:"target_density" yaml:"target_density"`
	// DescribeTimeoutMillis bounds each description-enhancement call.
	DescribeTimeoutMillis int `json:"describe_timeout_millis" yaml:"describe_timeout_millis"`
	// RandomSeed seeds the pipeline's stochastic routines so a run is
	// reproducible. Zero means seed from entropy.
	RandomSeed int64 `json:"random_seed" yaml:"random_seed"`
}

// DefaultConfig returns the parameter set the pipeline is tuned for.
func DefaultConfig() Config {
	return Config{
		Decoder: decode.Config{
			ConfidenceThreshold: 0.5,
			NMSThreshold:        0.45,
			MaxCandidates:       4096,
		},
		MergeIoUThreshold:     0.3,
		SimilarityThreshold:   0.8,
		MaxConcurrent:         4,
		MaxTerrainHeight:      100,
		TargetDensity:         1,
		DescribeTimeoutMillis: 5000,
	}
}

// LoadConfig reads a YAML config file over the defaults, so a partial
// file only overrides what it names.
//
// Arguments:
//   - path: The YAML file to read.
//
// Returns:
//   - Config: The merged configuration.
//   - error: An error if the file cannot be read or parsed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}
