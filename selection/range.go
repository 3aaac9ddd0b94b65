// Package selection builds LSP textDocument/selectionRange responses: a
// linked list of nested ranges expanding outward from the cursor,
// walking the tree-sitter parent chain and, when the cursor sits inside
// an injection region, splicing across the injection boundary into the
// host tree instead of stopping at the region's own root node.
//
// Supplemented from original_source/src/analysis/selection.rs
// (build_selection_range_with_injection_and_offset et al.), expressed
// in this codebase's idiom (a Region's EffectiveStartByte/interval
// tree instead of a fresh per-call injection-query scan).
package selection

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/injection"
)

// Position is an LSP position in UTF-16 code units.
type Position struct {
	Line      int
	Character int
}

// Range is an LSP range.
type Range struct {
	Start Position
	End   Position
}

// SelectionRange is a node in LSP's SelectionRange linked list.
type SelectionRange struct {
	Range  Range
	Parent *SelectionRange
}

func equalRange(a, b Range) bool {
	return a.Start == b.Start && a.End == b.End
}

// contains reports whether outer fully contains inner (or equals it).
func contains(outer, inner Range) bool {
	if posLess(outer.Start, inner.Start) || outer.Start == inner.Start {
		return posLess(inner.End, outer.End) || inner.End == outer.End
	}
	return false
}

func posLess(a, b Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character < b.Character
}

func nodeRange(index *document.LineIndex, startByte, endByte uint, byteOffset int) Range {
	sl, _ := index.ByteToPoint(int(startByte) + byteOffset)
	sc := index.ByteToUTF16Column(int(startByte) + byteOffset)
	el, _ := index.ByteToPoint(int(endByte) + byteOffset)
	ec := index.ByteToUTF16Column(int(endByte) + byteOffset)
	return Range{Start: Position{Line: sl, Character: sc}, End: Position{Line: el, Character: ec}}
}

// Build walks node's parent chain within a single tree, translating
// every ancestor's byte range to an LSP Range via index (byteOffset is
// added to every node's byte positions before lookup, letting the same
// function serve a host tree — offset 0 — or an injection's own tree,
// whose bytes are relative to the region's effective start).
func Build(node tree_sitter.Node, index *document.LineIndex, byteOffset int) *SelectionRange {
	current := node
	var head, tail *SelectionRange
	for {
		sel := &SelectionRange{Range: nodeRange(index, current.StartByte(), current.EndByte(), byteOffset)}
		if tail == nil {
			head = sel
		} else {
			tail.Parent = sel
		}
		tail = sel

		parent := current.Parent()
		if parent == nil {
			break
		}
		current = *parent
	}
	return head
}

// BuildAcrossInjection builds the selection chain for a cursor inside
// an injection region: the local node's own chain (in the region's
// local tree) translated into host coordinates via region's
// EffectiveStartByte, followed by the host tree's chain starting from
// the host node that matches the region's content span, deduplicating
// a host ancestor whose range exactly equals the region's own range.
func BuildAcrossInjection(localNode tree_sitter.Node, region injection.Region, hostRoot tree_sitter.Node, hostIndex *document.LineIndex) *SelectionRange {
	localChain := Build(localNode, hostIndex, int(region.EffectiveStartByte))

	regionRange := nodeRange(hostIndex, region.EffectiveStartByte, region.EffectiveEndByte, 0)

	hostBoundary := hostRoot.NamedDescendantForByteRange(region.EffectiveStartByte, region.EffectiveEndByte)
	if hostBoundary == nil {
		return localChain
	}
	hostChain := Build(*hostBoundary, hostIndex, 0)

	return spliceAtBoundary(localChain, regionRange, hostChain)
}

// spliceAtBoundary appends hostChain after localChain, skipping any
// leading hostChain node whose range duplicates the injection's own
// range (the host node found by NamedDescendantForByteRange is usually
// exactly the injection content node, which would otherwise appear
// twice in a row).
func spliceAtBoundary(localChain *SelectionRange, regionRange Range, hostChain *SelectionRange) *SelectionRange {
	if localChain == nil {
		return hostChain
	}

	tail := localChain
	for tail.Parent != nil {
		tail = tail.Parent
	}

	next := hostChain
	for next != nil && equalRange(next.Range, regionRange) && contains(next.Range, tail.Range) {
		next = next.Parent
		break
	}
	tail.Parent = next
	return localChain
}
