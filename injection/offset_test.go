package injection

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
)

func TestApplyOffset_NilDirectiveReturnsContentRangeUnchanged(t *testing.T) {
	text := []byte("0123456789")
	start := tree_sitter.NewPoint(0, 2)

	effStart, effEnd, effStartPoint := applyOffset(text, 2, 8, start, tree_sitter.NewPoint(0, 8), nil)

	assert.Equal(t, uint(2), effStart)
	assert.Equal(t, uint(8), effEnd)
	assert.Equal(t, start, effStartPoint)
}

// E4 from spec.md §8 is driven by an #offset! directive trimming a
// fenced code block's delimiter lines; exercise the underlying
// arithmetic directly: trimming one line off the start of a
// multi-line fenced block.
func TestApplyOffset_TrimsStartBySpecifiedDelta(t *testing.T) {
	text := []byte("```lua\nlocal x = 1\n```")
	// content range covers the whole fence; offset trims the opening
	// "```lua\n" line (1 row) and nothing else off the end.
	offset := &OffsetDirective{StartRowDelta: 1, StartColDelta: 0, EndRowDelta: 0, EndColDelta: 0}

	contentStart := uint(0)
	contentEnd := uint(len(text))
	startPoint := tree_sitter.NewPoint(0, 0)
	endPoint := tree_sitter.NewPoint(2, 3)

	effStart, effEnd, _ := applyOffset(text, contentStart, contentEnd, startPoint, endPoint, offset)

	assert.Equal(t, uint(7), effStart) // byte offset right after "```lua\n"
	assert.Equal(t, contentEnd, effEnd)
}

func TestApplyOffset_ClampsOutOfBoundsToContentRange(t *testing.T) {
	text := []byte("abc")
	offset := &OffsetDirective{StartRowDelta: 0, StartColDelta: -100, EndRowDelta: 0, EndColDelta: 100}

	effStart, effEnd, _ := applyOffset(text, 0, 3, tree_sitter.NewPoint(0, 0), tree_sitter.NewPoint(0, 3), offset)

	assert.Equal(t, uint(0), effStart)
	assert.Equal(t, uint(3), effEnd)
}

func TestShiftByte_RowDeltaAdvancesPastNewlines(t *testing.T) {
	text := []byte("aa\nbb\ncc")
	got := shiftByte(text, 0, tree_sitter.NewPoint(0, 0), 2, 0)
	assert.Equal(t, uint(6), got) // start of "cc"
}

func TestShiftByte_ClampsToDocumentBounds(t *testing.T) {
	text := []byte("abc")
	got := shiftByte(text, 0, tree_sitter.NewPoint(0, 0), 0, -10)
	assert.Equal(t, uint(0), got)

	got = shiftByte(text, 0, tree_sitter.NewPoint(0, 0), 0, 100)
	assert.Equal(t, uint(3), got)
}
