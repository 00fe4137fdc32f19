package pipeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapscene-ai/go-scene/cluster"
	"github.com/mapscene-ai/go-scene/regions"
)

// placedGroup builds an object grouping with members at the given unit
// positions.
func placedGroup(id int, objectType string, positions ...[2]float32) regions.ObjectGrouping {
	group := regions.ObjectGrouping{GroupID: id, ObjectType: objectType}
	for _, pos := range positions {
		seg := regions.NewSegment(regions.Detection{ClassName: objectType, Confidence: 0.9})
		group.Segments = append(group.Segments, regions.NewObjectSegment(
			seg, objectType, objectType, 0.9, regions.FeatureVector{},
			&regions.ObjectDetail{NormalizedPosition: pos},
		))
	}
	return group
}

func TestRetargetDensity_NegativeMultiplier(t *testing.T) {
	_, err := RetargetDensity(nil, -0.5, RetargetOptions{}, rand.New(rand.NewSource(1)))
	assert.Error(t, err, "negative density has no meaning")
}

func TestRetargetDensity_ZeroMultiplierDropsEverything(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "tree", [2]float32{0.2, 0.2}, [2]float32{0.8, 0.8}),
	}

	placements, err := RetargetDensity(groups, 0, RetargetOptions{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Empty(t, placements)
}

func TestRetargetDensity_IdentityMultiplier(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "tree", [2]float32{0.25, 0.25}, [2]float32{0.75, 0.75}),
		placedGroup(1, "rock", [2]float32{0.5, 0.5}),
	}

	placements, err := RetargetDensity(groups, 1, RetargetOptions{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 3)

	assert.Equal(t, "tree", placements[0].ObjectType)
	assert.Equal(t, 0, placements[0].GroupID)
	assert.Equal(t, "rock", placements[2].ObjectType)
	assert.Equal(t, 1, placements[2].GroupID)
	assert.Equal(t, cluster.Point{X: 0.25, Y: 0.25}, placements[0].Position,
		"identity multiplier with the default mode keeps positions")
}

func TestRetargetDensity_Shrink(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "tree",
			[2]float32{0.1, 0.1}, [2]float32{0.12, 0.1},
			[2]float32{0.9, 0.9}, [2]float32{0.88, 0.9}),
	}

	placements, err := RetargetDensity(groups, 0.5, RetargetOptions{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 2)

	// Farthest-point selection keeps one point per corner instead of two
	// from the same cluster.
	var lowerLeft, upperRight int
	for _, p := range placements {
		if p.Position.X < 0.5 {
			lowerLeft++
		} else {
			upperRight++
		}
	}
	assert.Equal(t, 1, lowerLeft, "shrinking keeps spatial coverage")
	assert.Equal(t, 1, upperRight)
}

func TestRetargetDensity_Grow(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "tree", [2]float32{0.25, 0.25}, [2]float32{0.75, 0.75}),
	}

	placements, err := RetargetDensity(groups, 3, RetargetOptions{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 6)

	for i, p := range placements {
		assert.Equal(t, "tree", p.ObjectType, "synthesized placement %d keeps the group type", i)
		assert.GreaterOrEqual(t, p.Position.X, 0.0)
		assert.LessOrEqual(t, p.Position.X, 1.0)
		assert.GreaterOrEqual(t, p.Position.Y, 0.0)
		assert.LessOrEqual(t, p.Position.Y, 1.0)
	}

	// The originals survive growth in place.
	assert.Equal(t, cluster.Point{X: 0.25, Y: 0.25}, placements[0].Position)
	assert.Equal(t, cluster.Point{X: 0.75, Y: 0.75}, placements[1].Position)
}

func TestRetargetDensity_GridMode(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "house",
			[2]float32{0.21, 0.19}, [2]float32{0.52, 0.48}, [2]float32{0.77, 0.81}),
	}

	opts := RetargetOptions{Mode: DistributionGrid, GridCells: 4}
	placements, err := RetargetDensity(groups, 1, opts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 3)

	// Grid snapping keeps every point within jitter range of a cell
	// center (cell size 0.25, jitter 0.25/4).
	for _, p := range placements {
		for _, v := range []float64{p.Position.X, p.Position.Y} {
			cell := int(v * 4)
			if cell > 3 {
				cell = 3
			}
			center := (float64(cell) + 0.5) / 4
			assert.InDelta(t, center, v, 0.25/4+1e-9, "snapped coordinate sits near a cell center")
		}
	}
}

func TestRetargetDensity_PathMode(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "camp", [2]float32{0.3, 0.45}, [2]float32{0.6, 0.55}),
	}
	path := cluster.Polyline{{X: 0, Y: 0.5}, {X: 1, Y: 0.5}}

	opts := RetargetOptions{Mode: DistributionPathAligned, Paths: []cluster.Polyline{path}}
	placements, err := RetargetDensity(groups, 1, opts, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 2)

	for _, p := range placements {
		assert.InDelta(t, 0.5, p.Position.Y, 1e-9, "points project onto the path")
	}
}

func TestRetargetDensity_SkipsGroupsWithoutPlacement(t *testing.T) {
	terrainSeg := regions.NewTerrainSegment(
		regions.NewSegment(regions.Detection{ClassName: "water"}),
		"water", "water", 0.9, regions.FeatureVector{}, &regions.TerrainDetail{})
	groups := []regions.ObjectGrouping{
		{GroupID: 0, ObjectType: "water", Segments: []*regions.AnalyzedSegment{terrainSeg}},
		placedGroup(1, "tree", [2]float32{0.4, 0.4}),
	}

	placements, err := RetargetDensity(groups, 1, RetargetOptions{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 1, "members without placement detail contribute nothing")
	assert.Equal(t, 1, placements[0].GroupID)
}

func TestRetargetDensity_SpreadMode(t *testing.T) {
	groups := []regions.ObjectGrouping{
		placedGroup(0, "tree",
			[2]float32{0.5, 0.5}, [2]float32{0.51, 0.5}, [2]float32{0.5, 0.51}),
	}

	placements, err := RetargetDensity(groups, 1,
		RetargetOptions{Mode: DistributionSpread}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, placements, 3, "spreading preserves the group count")

	for i, p := range placements {
		assert.Equal(t, "tree", p.ObjectType)
		for j := i + 1; j < len(placements); j++ {
			dist := p.Position.Dist(placements[j].Position)
			assert.Greater(t, dist, 0.05,
				"spread mode separates near-coincident members")
		}
	}
}
