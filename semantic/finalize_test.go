package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// E1 from spec.md §8: `let x = "a"` with keyword/variable/string
// captures produces sorted, delta-encoded, zero-based tokens.
func TestFinalize_E1SingleLine(t *testing.T) {
	const keywordIdx, variableIdx, stringIdx = 15, 8, 18

	tokens := []RawToken{
		{Line: 0, ColumnUTF16: 4, LengthUTF16: 1, TypeIndex: variableIdx},
		{Line: 0, ColumnUTF16: 0, LengthUTF16: 3, TypeIndex: keywordIdx},
		{Line: 0, ColumnUTF16: 8, LengthUTF16: 3, TypeIndex: stringIdx},
	}

	got := Finalize(tokens)

	assert.Equal(t, []uint32{
		0, 0, 3, keywordIdx, 0,
		0, 4, 1, variableIdx, 0,
		0, 8, 3, stringIdx, 0,
	}, got)
}

func TestFinalize_DropsZeroLength(t *testing.T) {
	tokens := []RawToken{
		{Line: 0, ColumnUTF16: 0, LengthUTF16: 0, TypeIndex: 1},
		{Line: 0, ColumnUTF16: 2, LengthUTF16: 3, TypeIndex: 2},
	}

	got := Finalize(tokens)

	assert.Equal(t, []uint32{0, 2, 3, 2, 0}, got)
}

// Invariant 2: at most one token survives per (line, column); first
// wins after the stable sort.
func TestFinalize_DedupesBySpanFirstWins(t *testing.T) {
	tokens := []RawToken{
		{Line: 1, ColumnUTF16: 3, LengthUTF16: 5, TypeIndex: 10},
		{Line: 1, ColumnUTF16: 3, LengthUTF16: 5, TypeIndex: 99},
	}

	got := Finalize(tokens)

	assert.Equal(t, []uint32{1, 3, 5, 10, 0}, got)
}

func TestFinalize_Deterministic(t *testing.T) {
	tokens := []RawToken{
		{Line: 2, ColumnUTF16: 1, LengthUTF16: 2, TypeIndex: 3},
		{Line: 0, ColumnUTF16: 5, LengthUTF16: 1, TypeIndex: 1},
		{Line: 1, ColumnUTF16: 0, LengthUTF16: 4, TypeIndex: 2},
	}

	first := Finalize(append([]RawToken{}, tokens...))
	second := Finalize(append([]RawToken{}, tokens...))

	assert.Equal(t, first, second)
}
