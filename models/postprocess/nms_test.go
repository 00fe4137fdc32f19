package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

func det(classID int, confidence float32, box images.Rect) regions.Detection {
	return regions.Detection{ClassID: classID, Confidence: confidence, Box: box}
}

// TestApplyGreedyNMS_ThresholdBoundary uses two boxes with IoU 25/175 ≈ 0.143:
// suppressed under a 0.1 threshold, both kept under 0.3.
func TestApplyGreedyNMS_ThresholdBoundary(t *testing.T) {
	candidates := []regions.Detection{
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		det(0, 0.8, images.Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}),
	}

	kept := ApplyGreedyNMS(candidates, &NMSConfig{IoUThreshold: 0.3})
	assert.Len(t, kept, 2, "overlap below the threshold keeps both boxes")

	kept = ApplyGreedyNMS(candidates, &NMSConfig{IoUThreshold: 0.1})
	require.Len(t, kept, 1, "overlap above the threshold suppresses the weaker box")
	assert.Equal(t, float32(0.9), kept[0].Confidence, "the higher-confidence box survives")
}

func TestApplyGreedyNMS_Idempotent(t *testing.T) {
	candidates := []regions.Detection{
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 100, Y2: 100}),
		det(0, 0.8, images.Rect{X1: 10, Y1: 10, X2: 110, Y2: 110}),
		det(0, 0.7, images.Rect{X1: 200, Y1: 200, X2: 300, Y2: 300}),
		det(1, 0.6, images.Rect{X1: 5, Y1: 5, X2: 105, Y2: 105}),
	}
	cfg := &NMSConfig{IoUThreshold: 0.4}

	once := ApplyGreedyNMS(candidates, cfg)
	twice := ApplyGreedyNMS(once, cfg)
	assert.Equal(t, once, twice, "suppression over its own output is a fixed point")
}

func TestApplyGreedyNMS_DoesNotMutateInput(t *testing.T) {
	candidates := []regions.Detection{
		det(0, 0.5, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
	}

	_ = ApplyGreedyNMS(candidates, &NMSConfig{IoUThreshold: 0.5})
	assert.Equal(t, float32(0.5), candidates[0].Confidence, "input order is untouched")
}

func TestApplyGreedyNMS_ClassAware(t *testing.T) {
	// Identical boxes of different classes survive class-aware suppression.
	candidates := []regions.Detection{
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		det(1, 0.8, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
	}

	kept := ApplyGreedyNMS(candidates, &NMSConfig{IoUThreshold: 0.5, ClassAware: true})
	assert.Len(t, kept, 2, "cross-class boxes never suppress each other")

	kept = ApplyGreedyNMS(candidates, &NMSConfig{IoUThreshold: 0.5})
	assert.Len(t, kept, 1, "class-agnostic suppression collapses them")
}

func TestApplyGreedyNMS_Empty(t *testing.T) {
	assert.Nil(t, ApplyGreedyNMS(nil, &NMSConfig{IoUThreshold: 0.5}))
}

func TestSortByConfidence_StableDescending(t *testing.T) {
	dets := []regions.Detection{
		det(0, 0.5, images.Rect{X1: 0, Y1: 0, X2: 1, Y2: 1}),
		det(1, 0.9, images.Rect{X1: 1, Y1: 0, X2: 2, Y2: 1}),
		det(2, 0.5, images.Rect{X1: 2, Y1: 0, X2: 3, Y2: 1}),
	}

	SortByConfidence(dets)
	assert.Equal(t, float32(0.9), dets[0].Confidence)
	assert.Equal(t, 0, dets[1].ClassID, "equal scores keep their original order")
	assert.Equal(t, 2, dets[2].ClassID)
}

func TestApplyPerClassNMS(t *testing.T) {
	candidates := []regions.Detection{
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		det(0, 0.8, images.Rect{X1: 1, Y1: 1, X2: 11, Y2: 11}), // suppressed by the first
		det(1, 0.7, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}), // different class, kept
		det(1, 0.6, images.Rect{X1: 50, Y1: 50, X2: 60, Y2: 60}),
	}

	kept := ApplyPerClassNMS(candidates, &NMSConfig{IoUThreshold: 0.5})
	require.Len(t, kept, 3)
	assert.Equal(t, 0, kept[0].ClassID, "classes come back in first-seen order")
	assert.Equal(t, 1, kept[1].ClassID)
	assert.Equal(t, 1, kept[2].ClassID)
}

func TestApplyPerClassNMS_MaxPerClass(t *testing.T) {
	candidates := []regions.Detection{
		det(0, 0.9, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		det(0, 0.8, images.Rect{X1: 100, Y1: 0, X2: 110, Y2: 10}),
		det(0, 0.7, images.Rect{X1: 200, Y1: 0, X2: 210, Y2: 10}),
	}

	kept := ApplyPerClassNMS(candidates, &NMSConfig{IoUThreshold: 0.5, MaxPerClass: 2})
	require.Len(t, kept, 2)
	assert.Equal(t, float32(0.9), kept[0].Confidence, "the cap keeps the strongest survivors")
	assert.Equal(t, float32(0.8), kept[1].Confidence)
}
