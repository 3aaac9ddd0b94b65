package document

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/stretchr/testify/assert"
)

func TestApplyEdit_FullDocumentReplacementSignaledByNegativeEndLine(t *testing.T) {
	text := []byte("hello\nworld")
	index := NewLineIndex(text)

	newText, inputEdit := ApplyEdit(text, index, Edit{EndLine: -1, NewText: "goodbye"})

	assert.Equal(t, "goodbye", string(newText))
	assert.Equal(t, uint(0), inputEdit.StartByte)
	assert.Equal(t, uint(len(text)), inputEdit.OldEndByte)
	assert.Equal(t, uint(len("goodbye")), inputEdit.NewEndByte)
	assert.Equal(t, tree_sitter.NewPoint(0, 0), inputEdit.StartPoint)
}

func TestApplyEdit_SingleLineRangeReplacement(t *testing.T) {
	text := []byte("hello world")
	index := NewLineIndex(text)

	// Replace "world" (columns 6-11) with "there".
	newText, inputEdit := ApplyEdit(text, index, Edit{
		StartLine: 0, StartUTF16Col: 6,
		EndLine: 0, EndUTF16Col: 11,
		NewText: "there",
	})

	assert.Equal(t, "hello there", string(newText))
	assert.Equal(t, uint(6), inputEdit.StartByte)
	assert.Equal(t, uint(11), inputEdit.OldEndByte)
	assert.Equal(t, uint(11), inputEdit.NewEndByte) // "hello " (6) + "there" (5)
	assert.Equal(t, tree_sitter.NewPoint(0, 6), inputEdit.StartPoint)
	assert.Equal(t, tree_sitter.NewPoint(0, 11), inputEdit.OldEndPoint)
	assert.Equal(t, tree_sitter.NewPoint(0, 11), inputEdit.NewEndPoint)
}

func TestApplyEdit_MultiLineRangeSpanningLineInsertion(t *testing.T) {
	text := []byte("line one\nline two\nline three")
	index := NewLineIndex(text)

	// Replace from end of "one" through start of "two" with two newlines,
	// inserting a blank line between them.
	newText, inputEdit := ApplyEdit(text, index, Edit{
		StartLine: 0, StartUTF16Col: 8,
		EndLine: 1, EndUTF16Col: 0,
		NewText: "\n\n",
	})

	assert.Equal(t, "line one\n\nline two\nline three", string(newText))
	assert.Equal(t, uint(8), inputEdit.StartByte)
	assert.Equal(t, tree_sitter.NewPoint(2, 0), inputEdit.NewEndPoint)
}

func TestApplyEdit_InsertionAtEndOfLineHasZeroWidthRange(t *testing.T) {
	text := []byte("abc")
	index := NewLineIndex(text)

	newText, inputEdit := ApplyEdit(text, index, Edit{
		StartLine: 0, StartUTF16Col: 3,
		EndLine: 0, EndUTF16Col: 3,
		NewText: "def",
	})

	assert.Equal(t, "abcdef", string(newText))
	assert.Equal(t, inputEdit.StartByte, inputEdit.OldEndByte)
	assert.Equal(t, uint(6), inputEdit.NewEndByte)
}
