package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tok(line, col, length int, typeIdx uint32) []uint32 {
	return []uint32{uint32(line), uint32(col), uint32(length), typeIdx, 0}
}

func flatten(tokens ...[]uint32) []uint32 {
	var out []uint32
	for _, t := range tokens {
		out = append(out, t...)
	}
	return out
}

// Invariant 5: identical arrays produce a zero-edit (no replacement).
func TestComputeDelta_Identical(t *testing.T) {
	data := flatten(tok(0, 0, 3, 1), tok(0, 4, 1, 2), tok(1, 0, 5, 3))

	edit := ComputeDelta(data, data)

	assert.Equal(t, uint32(len(data)/5*5), edit.Start)
	assert.Equal(t, uint32(0), edit.DeleteCount)
	assert.Empty(t, edit.Data)
}

// E5 from spec.md §8: a line is inserted between the first and last of
// three tokens. One token of prefix survives, all ten remaining
// previous slots are deleted, and the replacement carries the three
// tokens from the insertion point onward (fifteen slots); suffix
// matching must be disabled because total line advance changed.
func TestComputeDelta_E5LineInserted(t *testing.T) {
	prev := flatten(
		tok(0, 0, 3, 1), // delta_line 0
		tok(1, 0, 3, 1), // delta_line 1
		tok(1, 0, 3, 1), // delta_line 1
	)
	cur := flatten(
		tok(0, 0, 3, 1),
		tok(1, 0, 3, 9), // new token on line 1
		tok(1, 0, 3, 1), // previously line-1 token, now line-2 in absolute terms but still delta_line 1 here by construction
		tok(1, 0, 3, 1),
	)

	edit := ComputeDelta(prev, cur)

	assert.Equal(t, uint32(5), edit.Start)
	assert.Equal(t, uint32(10), edit.DeleteCount)
	assert.Len(t, edit.Data, 15)
}

func TestComputeDelta_CommonPrefixAndSuffix(t *testing.T) {
	prev := flatten(tok(0, 0, 3, 1), tok(0, 4, 1, 2), tok(0, 8, 3, 3))
	cur := flatten(tok(0, 0, 3, 1), tok(0, 4, 1, 99), tok(0, 8, 3, 3))

	edit := ComputeDelta(prev, cur)

	assert.Equal(t, uint32(5), edit.Start)
	assert.Equal(t, uint32(5), edit.DeleteCount)
	assert.Equal(t, tok(0, 4, 1, 99), edit.Data)
}

func TestComputeDelta_SuffixDisabledWhenLineCountDiffers(t *testing.T) {
	prev := flatten(tok(0, 0, 3, 1), tok(1, 0, 3, 2))
	cur := flatten(tok(0, 0, 3, 1), tok(5, 0, 3, 9), tok(1, 0, 3, 2))

	edit := ComputeDelta(prev, cur)

	// The trailing token is byte-identical to prev's last token, but
	// total line advance changed (1 vs 6), so suffix matching must stay
	// off and that token is still part of the replacement data.
	assert.Equal(t, uint32(5), edit.Start)
	assert.Equal(t, uint32(5), edit.DeleteCount)
	assert.Len(t, edit.Data, 10)
}
