package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveParents_TopLevelRegionGetsNoParent(t *testing.T) {
	regions := []Region{
		{LanguageID: "lua", RegionID: "r1", ParentIndex: -1},
	}

	ResolveParents(regions)

	assert.Empty(t, regions[0].Parent)
}

func TestResolveParents_NestedRegionPointsAtParentRegionID(t *testing.T) {
	regions := []Region{
		{LanguageID: "markdown", RegionID: "outer", ParentIndex: -1},
		{LanguageID: "lua", RegionID: "inner", ParentIndex: 0},
	}

	ResolveParents(regions)

	assert.Empty(t, regions[0].Parent)
	assert.Equal(t, "outer", regions[1].Parent)
}

func TestResolveParents_DeeplyNestedChainResolvesEachLevel(t *testing.T) {
	regions := []Region{
		{RegionID: "a", ParentIndex: -1},
		{RegionID: "b", ParentIndex: 0},
		{RegionID: "c", ParentIndex: 1},
	}

	ResolveParents(regions)

	assert.Equal(t, "a", regions[1].Parent)
	assert.Equal(t, "b", regions[2].Parent)
}

func TestResolveParents_OutOfRangeParentIndexLeavesParentEmpty(t *testing.T) {
	regions := []Region{
		{RegionID: "only", ParentIndex: 5},
	}

	ResolveParents(regions)

	assert.Empty(t, regions[0].Parent)
}
