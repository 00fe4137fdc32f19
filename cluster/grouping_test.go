package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapscene-ai/go-scene/images"
	"github.com/mapscene-ai/go-scene/regions"
)

func analyzedObject(objectType string, box images.Rect) *regions.AnalyzedSegment {
	seg := regions.NewSegment(regions.Detection{ClassName: objectType, Box: box})
	return regions.NewObjectSegment(seg, objectType, objectType, 0.9, regions.FeatureVector{}, &regions.ObjectDetail{})
}

func TestGroupBySimilarity_CollapsesNearDuplicates(t *testing.T) {
	// Two nearly identical boxes of the same type and one far away.
	objs := []*regions.AnalyzedSegment{
		analyzedObject("tree", images.Rect{X1: 10, Y1: 10, X2: 30, Y2: 30}),
		analyzedObject("tree", images.Rect{X1: 11, Y1: 11, X2: 31, Y2: 31}),
		analyzedObject("tree", images.Rect{X1: 200, Y1: 200, X2: 220, Y2: 220}),
	}

	groups := GroupBySimilarity(objs, 0.8, nil)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Segments, 2, "near-duplicates join the seed's group")
	assert.Len(t, groups[1].Segments, 1)
	assert.Same(t, objs[0], groups[0].Representative(), "the seed is the representative")
}

func TestGroupBySimilarity_TypeBoundary(t *testing.T) {
	// Identical boxes of different coarse types never share a group.
	objs := []*regions.AnalyzedSegment{
		analyzedObject("tree", images.Rect{X1: 10, Y1: 10, X2: 30, Y2: 30}),
		analyzedObject("rock", images.Rect{X1: 10, Y1: 10, X2: 30, Y2: 30}),
	}

	groups := GroupBySimilarity(objs, 0.5, nil)
	assert.Len(t, groups, 2)
}

func TestGroupBySimilarity_ThresholdBoundary(t *testing.T) {
	objs := []*regions.AnalyzedSegment{
		analyzedObject("tree", images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		analyzedObject("tree", images.Rect{X1: 5, Y1: 5, X2: 15, Y2: 15}), // IoU ≈ 0.143
	}

	groups := GroupBySimilarity(objs, 0.1, nil)
	assert.Len(t, groups, 1, "similarity above the threshold joins")

	groups = GroupBySimilarity(objs, 0.2, nil)
	assert.Len(t, groups, 2, "similarity below the threshold stays separate")
}

func TestGroupBySimilarity_CustomSimilarity(t *testing.T) {
	objs := []*regions.AnalyzedSegment{
		analyzedObject("tree", images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		analyzedObject("tree", images.Rect{X1: 500, Y1: 500, X2: 510, Y2: 510}),
	}

	everything := func(a, b *regions.Segment) float32 { return 1 }
	groups := GroupBySimilarity(objs, 0.9, everything)
	require.Len(t, groups, 1, "a custom measure overrides the spatial default")
	assert.Len(t, groups[0].Segments, 2)
}

func TestGroupBySimilarity_GroupIDsSequential(t *testing.T) {
	objs := []*regions.AnalyzedSegment{
		analyzedObject("tree", images.Rect{X1: 0, Y1: 0, X2: 10, Y2: 10}),
		analyzedObject("rock", images.Rect{X1: 100, Y1: 100, X2: 110, Y2: 110}),
		analyzedObject("camp", images.Rect{X1: 300, Y1: 300, X2: 310, Y2: 310}),
	}

	groups := GroupBySimilarity(objs, 0.8, nil)
	require.Len(t, groups, 3)
	for i, g := range groups {
		assert.Equal(t, i, g.GroupID)
	}
}

func TestGroupBySimilarity_Empty(t *testing.T) {
	assert.Nil(t, GroupBySimilarity(nil, 0.8, nil))
}
