package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_GetOnEmptyPoolReturnsFalse(t *testing.T) {
	p := NewPool()
	_, ok := p.Get("gopls")
	assert.False(t, ok)
}

func TestPool_ShutdownAllOnEmptyPoolIsNoop(t *testing.T) {
	p := NewPool()
	assert.NoError(t, p.ShutdownAll(nil))
}
