package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/treesitter-ls/injection"
)

func TestTopLevel_FiltersRegionsWithoutParent(t *testing.T) {
	regions := []injection.Region{
		{LanguageID: "lua", ParentIndex: -1},
		{LanguageID: "sql", ParentIndex: 0},
		{LanguageID: "bash", ParentIndex: -1},
	}

	got := topLevel(regions)

	assert.Len(t, got, 2)
	assert.Equal(t, "lua", got[0].LanguageID)
	assert.Equal(t, "bash", got[1].LanguageID)
}

func TestTopLevel_EmptyWhenNoRegions(t *testing.T) {
	assert.Empty(t, topLevel(nil))
}

func TestChildrenOf_FiltersByParentRegionID(t *testing.T) {
	regions := []injection.Region{
		{RegionID: "outer", Parent: ""},
		{RegionID: "a", Parent: "outer"},
		{RegionID: "b", Parent: "outer"},
		{RegionID: "c", Parent: "a"},
	}

	got := childrenOf(regions, "outer")

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].RegionID)
	assert.Equal(t, "b", got[1].RegionID)
}

func TestChildrenOf_EmptyWhenNoMatch(t *testing.T) {
	regions := []injection.Region{{RegionID: "a", Parent: "outer"}}
	assert.Empty(t, childrenOf(regions, "nonexistent"))
}

func TestWorkerLimit_CapsAtMaximum(t *testing.T) {
	assert.Equal(t, 8, workerLimit(100))
}

func TestWorkerLimit_PassesThroughUnderCap(t *testing.T) {
	assert.Equal(t, 3, workerLimit(3))
}

func TestWorkerLimit_ZeroRegionsYieldsZero(t *testing.T) {
	assert.Equal(t, 0, workerLimit(0))
}
