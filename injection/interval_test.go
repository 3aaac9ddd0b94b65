package injection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func region(lang string, start, end uint) Region {
	return Region{LanguageID: lang, EffectiveStartByte: start, EffectiveEndByte: end}
}

func TestIntervalTree_Overlapping(t *testing.T) {
	regions := []Region{
		region("lua", 10, 20),
		region("sql", 30, 40),
		region("lua", 50, 60),
	}
	tree := NewIntervalTree(regions)

	got := tree.Overlapping(15, 35)
	assert.Len(t, got, 2)

	got = tree.Overlapping(41, 49)
	assert.Empty(t, got)

	got = tree.Overlapping(0, 100)
	assert.Len(t, got, 3)
}

func TestIntervalTree_Innermost(t *testing.T) {
	regions := []Region{
		region("markdown", 0, 100),
		region("lua", 10, 50),
		region("sql", 20, 30),
	}
	tree := NewIntervalTree(regions)

	got, ok := tree.Innermost(25)
	assert.True(t, ok)
	assert.Equal(t, "sql", got.LanguageID)

	got, ok = tree.Innermost(15)
	assert.True(t, ok)
	assert.Equal(t, "lua", got.LanguageID)

	_, ok = tree.Innermost(75)
	// only the markdown region contains 75, so it is also the innermost
	assert.True(t, ok)
}

func TestIntervalTree_ContainingExcludesBoundary(t *testing.T) {
	tree := NewIntervalTree([]Region{region("lua", 10, 20)})

	assert.Empty(t, tree.Containing(20)) // end is exclusive
	assert.Len(t, tree.Containing(19), 1)
	assert.Len(t, tree.Containing(10), 1)
	assert.Empty(t, tree.Containing(9))
}

func TestIntervalTree_All_SortedByStart(t *testing.T) {
	tree := NewIntervalTree([]Region{
		region("c", 50, 60),
		region("a", 10, 20),
		region("b", 30, 40),
	})

	got := tree.All()
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].LanguageID, got[1].LanguageID, got[2].LanguageID})
}
