package regions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapscene-ai/go-scene/images"
)

func TestDetection_OverlapsWith(t *testing.T) {
	a := &Detection{Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	b := &Detection{Box: images.Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}}

	// IoU is 25/175 ≈ 0.143.
	assert.True(t, a.OverlapsWith(b, 0.1), "overlap above the threshold should count")
	assert.False(t, a.OverlapsWith(b, 0.3), "overlap below the threshold should not count")
	assert.True(t, a.OverlapsWith(a, DefaultOverlapIoU), "identical boxes always overlap")
}

func TestDetection_Merge_ConfidenceAndBox(t *testing.T) {
	d := &Detection{
		ClassID:    1,
		ClassName:  "forest",
		Confidence: 0.6,
		Box:        images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10},
	}
	other := &Detection{
		ClassID:    2,
		ClassName:  "mountain",
		Confidence: 0.9,
		Box:        images.Rect{X1: 5, Y1: 5, X2: 20, Y2: 20},
	}

	d.Merge(other, true, true)

	assert.Equal(t, 2, d.ClassID, "higher-confidence identity wins when mergeConfidence is set")
	assert.Equal(t, "mountain", d.ClassName)
	assert.Equal(t, float32(0.9), d.Confidence)
	assert.Equal(t, images.Rect{X1: 0, Y1: 0, X2: 20, Y2: 20}, d.Box, "box becomes the union")
}

func TestDetection_Merge_ReceiverPrivileged(t *testing.T) {
	d := &Detection{ClassID: 1, ClassName: "forest", Confidence: 0.9, Box: images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}}
	other := &Detection{ClassID: 2, ClassName: "mountain", Confidence: 0.5, Box: images.Rect{X1: 50, Y1: 50, X2: 60, Y2: 60}}

	d.Merge(other, true, false)

	assert.Equal(t, 1, d.ClassID, "receiver keeps its identity when it scores higher")
	assert.Equal(t, float32(0.9), d.Confidence)
	assert.Equal(t, images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}, d.Box, "box is untouched without mergeBox")
}

func TestDetection_Merge_ClassScoresKeepMax(t *testing.T) {
	d := &Detection{ClassScores: map[string]float32{"forest": 0.8, "water": 0.2}}
	other := &Detection{ClassScores: map[string]float32{"forest": 0.5, "desert": 0.4}}

	d.Merge(other, false, false)

	assert.Equal(t, float32(0.8), d.ClassScores["forest"], "larger score survives per key")
	assert.Equal(t, float32(0.2), d.ClassScores["water"])
	assert.Equal(t, float32(0.4), d.ClassScores["desert"], "missing keys are inserted")
}

func TestDetection_Merge_MetadataExistingWins(t *testing.T) {
	d := &Detection{Metadata: map[string]any{"source": "tile-1"}}
	other := &Detection{Metadata: map[string]any{"source": "tile-2", "extra": 7}}

	d.Merge(other, false, false)

	assert.Equal(t, "tile-1", d.Metadata["source"], "existing metadata wins on conflict")
	assert.Equal(t, 7, d.Metadata["extra"], "new metadata keys are added")
}

func TestDetection_Merge_LongerDescriptionSurvives(t *testing.T) {
	d := &Detection{Description: "a lake"}
	other := &Detection{Description: "a large mountain lake"}

	d.Merge(other, false, false)
	assert.Equal(t, "a large mountain lake", d.Description)

	// Merging a shorter description changes nothing.
	d.Merge(&Detection{Description: "lake"}, false, false)
	assert.Equal(t, "a large mountain lake", d.Description)
}

func TestDetection_Merge_NilOther(t *testing.T) {
	d := &Detection{ClassName: "forest", Confidence: 0.5}
	d.Merge(nil, true, true)
	assert.Equal(t, "forest", d.ClassName, "merging nil is a no-op")
}

func TestDetection_Clone(t *testing.T) {
	d := &Detection{
		ClassName:   "castle",
		ClassScores: map[string]float32{"castle": 0.9},
		Metadata:    map[string]any{"id": 3},
	}

	c := d.Clone()
	require.NotSame(t, d, c)

	c.ClassScores["castle"] = 0.1
	c.Metadata["id"] = 4
	assert.Equal(t, float32(0.9), d.ClassScores["castle"], "clone maps must not alias")
	assert.Equal(t, 3, d.Metadata["id"])
}
