package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mapscene-ai/go-scene/inference"
	"github.com/mapscene-ai/go-scene/pipeline"
)

const (
	// DefaultInputSize is the model input resolution per axis.
	DefaultInputSize = 640
	// defaultCandidates is the anchor count of a 640x640 detection head.
	defaultCandidates = 8400
)

func main() {
	var (
		inputDir   string
		configPath string
		modelPath  string
		inputSize  int
		jsonOut    bool
	)
	flag.StringVar(&inputDir, "input", "", "Directory of map images to analyze")
	flag.StringVar(&configPath, "config", "", "Optional YAML config file")
	flag.StringVar(&modelPath, "model", "", "Path to the detection ONNX model")
	flag.IntVar(&inputSize, "size", DefaultInputSize, "Model input resolution")
	flag.BoolVar(&jsonOut, "json", false, "Emit results as JSON")
	flag.Parse()

	if inputDir == "" || modelPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := pipeline.DefaultConfig()
	if configPath != "" {
		loaded, err := pipeline.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	if err := ort.InitializeEnvironment(); err != nil {
		log.Fatalf("Failed to initialize ONNX runtime: %v", err)
	}
	defer ort.DestroyEnvironment()

	classCount := 80
	session, err := inference.NewSession(
		modelPath,
		inference.TensorSpec{
			Name:  "images",
			Shape: []int64{1, 3, int64(inputSize), int64(inputSize)},
		},
		[]inference.TensorSpec{
			{
				Name:  inference.OutputScores,
				Shape: []int64{1, defaultCandidates, int64(4 + classCount + 32)},
			},
			{
				Name:  inference.OutputMasks,
				Shape: []int64{1, 32, int64(inputSize / 4), int64(inputSize / 4)},
			},
		},
	)
	if err != nil {
		log.Fatalf("Failed to open model session: %v", err)
	}
	defer session.Close()

	tiles, err := inference.LoadDirectoryTiles(inputDir, inputSize, inputSize)
	if err != nil {
		log.Fatalf("Failed to load images: %v", err)
	}
	if len(tiles) == 0 {
		log.Fatalf("No images found in %s", inputDir)
	}

	p := pipeline.New(cfg)
	ctx := context.Background()

	for _, tile := range tiles {
		input, err := inference.PrepareInput(tile.Image, inputSize, inputSize)
		if err != nil {
			log.Fatalf("Failed to prepare %s: %v", tile.Path, err)
		}

		outputs, err := session.Outputs(ctx, input)
		if err != nil {
			log.Fatalf("Inference failed for %s: %v", tile.Path, err)
		}

		result, err := p.Process(ctx, tile.Image, outputs[inference.OutputScores], outputs[inference.OutputMasks])
		if err != nil {
			log.Fatalf("Analysis failed for %s: %v", tile.Path, err)
		}

		if jsonOut {
			encoded, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				log.Fatalf("Failed to encode result: %v", err)
			}
			fmt.Println(string(encoded))
			continue
		}

		fmt.Printf(
			"%s: %d terrain, %d object groups (%d objects), density %.3f\n",
			tile.Path,
			len(result.Terrain),
			len(result.Objects),
			result.Metrics.ObjectSegments,
			result.Metrics.SpatialDensity,
		)
	}
}
