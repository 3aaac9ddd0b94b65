// Package injection discovers language-injection regions in a parsed
// tree (markdown fenced code blocks, embedded SQL strings, and similar),
// computes their offset-adjusted effective ranges, and tracks them with
// stable content-addressed ids across edits.
package injection

import tree_sitter "github.com/tree-sitter/go-tree-sitter"

// Region describes one language injection discovered by the engine.
type Region struct {
	// LanguageID is the resolved injection language (after
	// normalization), e.g. "lua", "sql".
	LanguageID string

	// ContentByteRange is the raw @injection.content capture's byte
	// range in the host document.
	ContentStartByte, ContentEndByte uint

	// EffectiveByteRange is ContentByteRange after applying an
	// #offset! directive, if the pattern carried one. Equal to the
	// content range when there is no directive.
	EffectiveStartByte, EffectiveEndByte uint

	// ContentStartPoint/EffectiveStartPoint mirror the byte ranges as
	// (row, column) points, needed to compute a virtual document's
	// first-line column offset.
	ContentStartPoint, EffectiveStartPoint tree_sitter.Point

	// PatternIndex is the injections.scm pattern that produced this
	// region, used to look up its #offset!/property settings.
	PatternIndex uint

	// Offset is the parsed #offset! directive for PatternIndex, if any.
	Offset *OffsetDirective

	// ContentHash is an FNV-1a hash of the effective text, used by the
	// Tracker to recognize a region that moved but did not change.
	ContentHash uint64

	// RegionID is the stable id assigned by the Tracker. Empty until
	// Tracker.Assign has run over the region set.
	RegionID string

	// Depth is 0 for a top-level injection, N for one nested N levels
	// inside other injections.
	Depth int

	// Parent is the RegionID of the injection this region is nested
	// inside, or "" for a top-level region. Populated by
	// ResolveParents after the Tracker has assigned every region's
	// RegionID — during collection only ParentIndex is known.
	Parent string

	// ParentIndex is this region's parent's position in the flattened
	// slice CollectAll returns, or -1 for a top-level region. Internal
	// bookkeeping for ResolveParents; callers outside this package
	// should use Parent instead.
	ParentIndex int
}

// EffectiveText returns the region's effective byte range within doc.
func (r Region) EffectiveText(doc []byte) []byte {
	return doc[r.EffectiveStartByte:r.EffectiveEndByte]
}

// Len returns the effective byte-range length.
func (r Region) Len() uint {
	return r.EffectiveEndByte - r.EffectiveStartByte
}

// Overlaps reports whether the byte range [start, end) intersects the
// region's effective range.
func (r Region) Overlaps(start, end uint) bool {
	return start < r.EffectiveEndByte && end > r.EffectiveStartByte
}
