package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func decodeAll(t *testing.T, data []uint32) []decoded {
	t.Helper()
	return decode(data)
}

func TestFilterRange_KeepsTokensInsideRange(t *testing.T) {
	full := Finalize([]RawToken{
		{Line: 0, ColumnUTF16: 0, LengthUTF16: 3, TypeIndex: 1},
		{Line: 5, ColumnUTF16: 2, LengthUTF16: 4, TypeIndex: 2},
		{Line: 20, ColumnUTF16: 0, LengthUTF16: 1, TypeIndex: 3},
	})

	got := FilterRange(full, Position{Line: 1, Character: 0}, Position{Line: 10, Character: 0})

	assert.Equal(t, Finalize([]RawToken{{Line: 5, ColumnUTF16: 2, LengthUTF16: 4, TypeIndex: 2}}), got)
}

// Open question (spec.md §9): a token is kept unless its end column is
// strictly before the requested start character — so a token ending
// exactly at the start column is kept, not dropped.
func TestFilterRange_TokenEndingExactlyAtStartIsKept(t *testing.T) {
	full := Finalize([]RawToken{
		{Line: 3, ColumnUTF16: 5, LengthUTF16: 5, TypeIndex: 1}, // spans [5,10)
	})

	got := FilterRange(full, Position{Line: 3, Character: 10}, Position{Line: 3, Character: 20})

	assert.Equal(t, full, got)
}

func TestFilterRange_TokenEndingBeforeStartIsDropped(t *testing.T) {
	full := Finalize([]RawToken{
		{Line: 3, ColumnUTF16: 5, LengthUTF16: 4, TypeIndex: 1}, // spans [5,9)
	})

	got := FilterRange(full, Position{Line: 3, Character: 10}, Position{Line: 3, Character: 20})

	assert.Empty(t, got)
}

func TestFilterRange_TokenStartingAtOrAfterEndIsDropped(t *testing.T) {
	full := Finalize([]RawToken{
		{Line: 3, ColumnUTF16: 10, LengthUTF16: 3, TypeIndex: 1},
	})

	got := FilterRange(full, Position{Line: 0, Character: 0}, Position{Line: 3, Character: 10})

	assert.Empty(t, got)
}

func TestDecode_RoundTripsEncodeDelta(t *testing.T) {
	tokens := []RawToken{
		{Line: 0, ColumnUTF16: 0, LengthUTF16: 3, TypeIndex: 1, ModifiersBits: 2},
		{Line: 0, ColumnUTF16: 5, LengthUTF16: 1, TypeIndex: 2},
		{Line: 3, ColumnUTF16: 2, LengthUTF16: 4, TypeIndex: 3},
	}
	encoded := Finalize(tokens)

	got := decodeAll(t, encoded)

	assert.Equal(t, []decoded{
		{line: 0, col: 0, length: 3, typeIdx: 1, mods: 2},
		{line: 0, col: 5, length: 1, typeIdx: 2},
		{line: 3, col: 2, length: 4, typeIdx: 3},
	}, got)
}
