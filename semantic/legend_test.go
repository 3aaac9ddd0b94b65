package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Invariant 10: for a legal dotted capture "a.b.c", the emitted token
// has token_type == legend index of "a" and modifiers bit set for both
// "b" and "c".
func TestResolveCapture_DottedNameMapsTypeAndModifiers(t *testing.T) {
	typeIdx, mods, ok := ResolveCapture("variable.readonly.static")
	assert.True(t, ok)

	wantType, _ := TypeIndex("variable")
	assert.Equal(t, wantType, typeIdx)

	readonlyBit, _ := ModifierBit("readonly")
	staticBit, _ := ModifierBit("static")
	assert.Equal(t, readonlyBit|staticBit, mods)
}

func TestResolveCapture_UnknownBaseIsSkipped(t *testing.T) {
	_, _, ok := ResolveCapture("spell")
	assert.False(t, ok, "a hint-only capture with no known base type must not produce a token")
}

func TestResolveCapture_UnknownModifierIgnored(t *testing.T) {
	typeIdx, mods, ok := ResolveCapture("keyword.nonsenseModifier")
	assert.True(t, ok)

	wantType, _ := TypeIndex("keyword")
	assert.Equal(t, wantType, typeIdx)
	assert.Equal(t, uint32(0), mods)
}

func TestResolveCapture_EmptyStringSuppresses(t *testing.T) {
	_, _, ok := ResolveCapture("")
	assert.False(t, ok)
}

func TestModifierBit_DistinctBitsPerPosition(t *testing.T) {
	seen := make(map[uint32]bool)
	for _, name := range TokenModifiers {
		bit, ok := ModifierBit(name)
		assert.True(t, ok)
		assert.False(t, seen[bit], "modifier bit collision for %s", name)
		seen[bit] = true
	}
}
