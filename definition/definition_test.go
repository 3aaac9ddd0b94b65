package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/treesitter-ls/document"
)

func TestIsDefinitionSubcapture_MatchesKindSuffix(t *testing.T) {
	assert.True(t, isDefinitionSubcapture("local.definition.var"))
	assert.True(t, isDefinitionSubcapture("local.definition.function"))
	assert.False(t, isDefinitionSubcapture("local.definition"))
	assert.False(t, isDefinitionSubcapture("local.reference"))
	assert.False(t, isDefinitionSubcapture("local.definition."))
}

func TestByteRangeToRange_TranslatesByteOffsetIntoLineCharacter(t *testing.T) {
	index := document.NewLineIndex([]byte("line one\nline two\n"))

	r := ByteRangeToRange(index, 9, 13, 0)

	assert.Equal(t, Position{Line: 1, Character: 0}, r.Start)
	assert.Equal(t, Position{Line: 1, Character: 4}, r.End)
}

func TestByteRangeToRange_AppliesByteOffsetForInjectionRegions(t *testing.T) {
	// "host text then injected content" — offset 9 shifts byte 0 of the
	// region's own local coordinates onto byte 9 of the host document.
	index := document.NewLineIndex([]byte("line one\nlocal x\n"))

	r := ByteRangeToRange(index, 0, 5, 9)

	assert.Equal(t, Position{Line: 1, Character: 0}, r.Start)
	assert.Equal(t, Position{Line: 1, Character: 5}, r.End)
}

func TestTable_ResolveFindsDefinitionInInnermostScope(t *testing.T) {
	root := &scope{startByte: 0, endByte: 100}
	inner := &scope{startByte: 10, endByte: 50, parent: root}
	inner.defs = []definition{{name: "x", startByte: 12, endByte: 13, startPoint: 12}}
	table := &Table{root: root, scopes: []*scope{root, inner}}

	startByte, endByte, ok := table.Resolve("x", 20)

	assert.True(t, ok)
	assert.Equal(t, uint(12), startByte)
	assert.Equal(t, uint(13), endByte)
}

func TestTable_ResolveFallsBackToOuterScope(t *testing.T) {
	root := &scope{startByte: 0, endByte: 100}
	root.defs = []definition{{name: "g", startByte: 2, endByte: 3, startPoint: 2}}
	inner := &scope{startByte: 10, endByte: 50, parent: root}
	table := &Table{root: root, scopes: []*scope{root, inner}}

	startByte, endByte, ok := table.Resolve("g", 20)

	assert.True(t, ok)
	assert.Equal(t, uint(2), startByte)
	assert.Equal(t, uint(3), endByte)
}

func TestTable_ResolveUnknownNameFails(t *testing.T) {
	root := &scope{startByte: 0, endByte: 100}
	table := &Table{root: root, scopes: []*scope{root}}

	_, _, ok := table.Resolve("nope", 5)
	assert.False(t, ok)
}

func TestBestInScope_PrefersMostRecentDefinitionBeforePosition(t *testing.T) {
	s := &scope{defs: []definition{
		{name: "x", startByte: 1, endByte: 2, startPoint: 1},
		{name: "x", startByte: 5, endByte: 6, startPoint: 5},
	}}

	d, ok := bestInScope(s, "x", 10)

	assert.True(t, ok)
	assert.Equal(t, uint(5), d.startByte) // the later shadowing definition wins
}

func TestBestInScope_HoistsDefinitionDeclaredAfterPosition(t *testing.T) {
	s := &scope{defs: []definition{
		{name: "f", startByte: 20, endByte: 21, startPoint: 20},
	}}

	d, ok := bestInScope(s, "f", 5)

	assert.True(t, ok)
	assert.Equal(t, uint(20), d.startByte)
}

func TestInnermostScope_PicksSmallestEnclosingSpan(t *testing.T) {
	root := &scope{startByte: 0, endByte: 100}
	mid := &scope{startByte: 10, endByte: 80, parent: root}
	inner := &scope{startByte: 20, endByte: 30, parent: mid}
	table := &Table{root: root, scopes: []*scope{root, mid, inner}}

	got := table.innermostScope(25)
	assert.Same(t, inner, got)

	got = table.innermostScope(50)
	assert.Same(t, mid, got)

	got = table.innermostScope(90)
	assert.Same(t, root, got)
}
