package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFarthestPointSubset_SingleSelection(t *testing.T) {
	candidates := []Point{
		{0.1, 0.1},
		{0.45, 0.55}, // nearest the unit-square center
		{0.9, 0.2},
		{0.95, 0.95},
	}

	subset := FarthestPointSubset(candidates, 1)
	require.Len(t, subset, 1)
	assert.Equal(t, Point{0.45, 0.55}, subset[0],
		"asking for one point always yields the one nearest (0.5, 0.5)")
}

func TestFarthestPointSubset_SpreadsSelection(t *testing.T) {
	candidates := []Point{
		{0.5, 0.5},
		{0.51, 0.5}, // crowding the anchor
		{0.52, 0.5},
		{0.0, 0.0},
		{1.0, 1.0},
	}

	subset := FarthestPointSubset(candidates, 3)
	require.Len(t, subset, 3)
	assert.Equal(t, Point{0.5, 0.5}, subset[0], "the anchor starts nearest the center")
	assert.Contains(t, subset, Point{0.0, 0.0}, "the far corners beat the crowded points")
	assert.Contains(t, subset, Point{1.0, 1.0})
}

func TestFarthestPointSubset_ExhaustsCandidates(t *testing.T) {
	candidates := []Point{{0.2, 0.2}, {0.8, 0.8}}

	subset := FarthestPointSubset(candidates, 10)
	assert.Len(t, subset, 2, "selection stops when candidates run out")
}

func TestFarthestPointSubset_Empty(t *testing.T) {
	assert.Nil(t, FarthestPointSubset(nil, 3))
	assert.Nil(t, FarthestPointSubset([]Point{{0.5, 0.5}}, 0))
}
