package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVirtualURI_RoundTrip(t *testing.T) {
	uri := VirtualURI("lua", "01HQZX", "")

	assert.True(t, IsVirtualURI(uri))
	assert.Equal(t, "file:///lua/kakehashi-virtual-uri-01HQZX.lua", uri)

	regionID, ok := RegionIDFromVirtualURI(uri)
	assert.True(t, ok)
	assert.Equal(t, "01HQZX", regionID)
}

func TestVirtualURI_ExplicitExtension(t *testing.T) {
	uri := VirtualURI("tsx", "01HQZX", "tsx")
	assert.Equal(t, "file:///tsx/kakehashi-virtual-uri-01HQZX.tsx", uri)
}

func TestIsVirtualURI_RealFileIsNotVirtual(t *testing.T) {
	assert.False(t, IsVirtualURI("file:///home/user/project/main.go"))

	_, ok := RegionIDFromVirtualURI("file:///home/user/project/main.go")
	assert.False(t, ok)
}

// E6 from spec.md §8: a Location's uri is translated back to the host
// document when it refers to this region, and dropped (cross-region
// jump) when it refers to a different virtual region.
func TestFilterCrossRegion(t *testing.T) {
	v := &VirtualDocument{
		HostURI:  "file:///doc.md",
		RegionID: "region-a",
	}

	hostURI, keep := v.FilterCrossRegion(VirtualURI("lua", "region-a", "lua"))
	assert.True(t, keep)
	assert.Equal(t, "file:///doc.md", hostURI)

	_, keep = v.FilterCrossRegion(VirtualURI("lua", "region-b", "lua"))
	assert.False(t, keep, "a location in a different injection region must be dropped")

	hostURI, keep = v.FilterCrossRegion("file:///other/real/file.go")
	assert.True(t, keep, "real file URIs pass through unchanged")
	assert.Equal(t, "file:///other/real/file.go", hostURI)
}

func TestVirtualDocument_TranslateLine(t *testing.T) {
	v := &VirtualDocument{RegionStartLine: 6}
	assert.Equal(t, 6, v.TranslateLine(0))
	assert.Equal(t, 8, v.TranslateLine(2))
}

func TestVirtualDocumentSet_PutGetRetire(t *testing.T) {
	s := NewVirtualDocumentSet()
	v := &VirtualDocument{RegionID: "r1"}
	s.Put(v)

	got, ok := s.Get("r1")
	assert.True(t, ok)
	assert.Same(t, v, got)

	retired, ok := s.Retire("r1")
	assert.True(t, ok)
	assert.Same(t, v, retired)

	_, ok = s.Get("r1")
	assert.False(t, ok)
}

func TestVirtualDocumentSet_RetireAllExcept(t *testing.T) {
	s := NewVirtualDocumentSet()
	s.Put(&VirtualDocument{RegionID: "r1"})
	s.Put(&VirtualDocument{RegionID: "r2"})
	s.Put(&VirtualDocument{RegionID: "r3"})

	removed := s.RetireAllExcept(map[string]struct{}{"r2": {}})

	assert.Len(t, removed, 2)
	_, ok := s.Get("r2")
	assert.True(t, ok)
	_, ok = s.Get("r1")
	assert.False(t, ok)
	_, ok = s.Get("r3")
	assert.False(t, ok)
}
