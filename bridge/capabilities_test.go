package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitySet_RegisterAndHasDynamic(t *testing.T) {
	c := NewCapabilitySet()

	assert.False(t, c.HasDynamic("textDocument/rename"))

	c.Register("reg-1", "textDocument/rename", json_{"prepareProvider": true})
	assert.True(t, c.HasDynamic("textDocument/rename"))
}

func TestCapabilitySet_UnregisterRemovesMethod(t *testing.T) {
	c := NewCapabilitySet()
	c.Register("reg-1", "textDocument/rename", nil)

	c.Unregister("reg-1")

	assert.False(t, c.HasDynamic("textDocument/rename"))
}

func TestCapabilitySet_UnregisterOneOfManyKeepsOthers(t *testing.T) {
	c := NewCapabilitySet()
	c.Register("reg-1", "textDocument/rename", nil)
	c.Register("reg-2", "textDocument/rename", nil)

	c.Unregister("reg-1")

	assert.True(t, c.HasDynamic("textDocument/rename"))
}

func TestCapabilitySet_UnregisterUnknownIDIsNoop(t *testing.T) {
	c := NewCapabilitySet()
	c.Register("reg-1", "textDocument/rename", nil)

	assert.NotPanics(t, func() { c.Unregister("never-registered") })
	assert.True(t, c.HasDynamic("textDocument/rename"))
}
