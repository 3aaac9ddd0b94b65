// Package definition resolves textDocument/definition requests using
// tree-sitter locals queries (@local.scope / @local.definition /
// @local.reference), the standard nvim-treesitter locals.scm
// convention also used by the other example grammars in this corpus.
//
// Goto-definition is implemented natively rather than forwarded to a
// downstream language server, so there is no bridge involvement here:
// a document's locals query is
// run for each definition request and the resulting scope tree answers
// that lookup directly, the same shape as semantic's highlights-capture walk but
// building a scope-chain table instead of a token stream.
package definition

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/document"
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

// Location is an LSP location: a URI plus a range within it.
type Location struct {
	URI   string
	Range Range
}

// definition is one @local.definition capture: the name it binds and
// the byte span of the node the client should jump to (the definition
// site itself, not the enclosing statement).
type definition struct {
	name       string
	startByte  uint
	endByte    uint
	startPoint uint // scope-local ordering key, see bestInScope
}

// scope is one @local.scope capture: its byte span, the definitions it
// directly owns, and its enclosing scope (nil for the root).
type scope struct {
	startByte, endByte uint
	parent             *scope
	defs               []definition
}

func (s *scope) contains(pos uint) bool {
	return pos >= s.startByte && pos < s.endByte
}

// Table answers goto-definition lookups for a single parsed document
// (or a single injection region's local tree — the caller translates
// coordinates the same way selection.Build does for host vs. region
// trees, via byteOffset at the call site).
type Table struct {
	root   *scope
	scopes []*scope
}

// Build runs query (a grammar's Locals query) over root and assembles
// the scope tree. A document with no locals query, or one that defines
// no @local.scope captures, still gets a single implicit root scope
// spanning the whole tree so references outside any explicit scope can
// still resolve against file-level definitions.
func Build(query *tree_sitter.Query, root tree_sitter.Node, text []byte) *Table {
	fileScope := &scope{startByte: root.StartByte(), endByte: root.EndByte()}
	t := &Table{root: fileScope, scopes: []*scope{fileScope}}

	if query == nil {
		return t
	}

	names := query.CaptureNames()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	// First pass: materialize every @local.scope so definitions and
	// references (collected in the second pass) can be assigned to
	// their innermost enclosing scope regardless of match order within
	// a single query run.
	matches := cursor.Matches(query, &root, text)
	for {
		match := matches.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(names) {
				continue
			}
			if names[capture.Index] != "local.scope" {
				continue
			}
			t.addScope(capture.Node.StartByte(), capture.Node.EndByte())
		}
	}

	cursor2 := tree_sitter.NewQueryCursor()
	defer cursor2.Close()

	matches2 := cursor2.Matches(query, &root, text)
	for {
		match := matches2.Next()
		if match == nil {
			break
		}
		for _, capture := range match.Captures {
			if int(capture.Index) >= len(names) {
				continue
			}
			name := names[capture.Index]
			if name != "local.definition" && !isDefinitionSubcapture(name) {
				continue
			}
			startByte, endByte := capture.Node.StartByte(), capture.Node.EndByte()
			owner := t.innermostScope(startByte)
			owner.defs = append(owner.defs, definition{
				name:       string(text[startByte:endByte]),
				startByte:  startByte,
				endByte:    endByte,
				startPoint: startByte,
			})
		}
	}

	for _, s := range t.scopes {
		sort.Slice(s.defs, func(i, j int) bool { return s.defs[i].startPoint < s.defs[j].startPoint })
	}

	return t
}

// isDefinitionSubcapture matches the "local.definition.<kind>" forms
// (local.definition.var, local.definition.function, ...) that grammars
// use to additionally tag a definition's kind; the kind suffix itself
// is not needed for resolution, only the binding.
func isDefinitionSubcapture(name string) bool {
	const prefix = "local.definition."
	return len(name) > len(prefix) && name[:len(prefix)] == prefix
}

func (t *Table) addScope(startByte, endByte uint) *scope {
	parent := t.innermostScope(startByte)
	s := &scope{startByte: startByte, endByte: endByte, parent: parent}
	t.scopes = append(t.scopes, s)
	return s
}

// innermostScope returns the smallest-span registered scope containing
// pos, falling back to the file-level root scope.
func (t *Table) innermostScope(pos uint) *scope {
	best := t.root
	for _, s := range t.scopes {
		if s.contains(pos) && (s.endByte-s.startByte) < (best.endByte-best.startByte) {
			best = s
		}
	}
	return best
}

// Resolve looks up name starting from the scope enclosing pos, walking
// outward through parent scopes until a definition is found. Within a
// scope, it prefers a definition whose startPoint is at or before pos
// (ordinary lexical shadowing); if none precedes pos, it falls back to
// the earliest definition in that scope after pos, so hoisted bindings
// (e.g. a function declared later in the same block) still resolve.
func (t *Table) Resolve(name string, pos uint) (startByte, endByte uint, ok bool) {
	for s := t.innermostScope(pos); s != nil; s = s.parent {
		if d, found := bestInScope(s, name, pos); found {
			return d.startByte, d.endByte, true
		}
	}
	return 0, 0, false
}

func bestInScope(s *scope, name string, pos uint) (definition, bool) {
	var before, after *definition
	for i := range s.defs {
		d := &s.defs[i]
		if d.name != name {
			continue
		}
		if d.startPoint <= pos {
			if before == nil || d.startPoint > before.startPoint {
				before = d
			}
			continue
		}
		if after == nil || d.startPoint < after.startPoint {
			after = d
		}
	}
	if before != nil {
		return *before, true
	}
	if after != nil {
		return *after, true
	}
	return definition{}, false
}

// NameAt returns the identifier-like leaf node at byte position pos
// (the smallest named descendant whose span contains pos), and its
// text, or ok=false if pos does not sit within a named leaf.
func NameAt(root tree_sitter.Node, text []byte, pos uint) (name string, startByte, endByte uint, ok bool) {
	node := root.NamedDescendantForByteRange(pos, pos)
	if node == nil {
		return "", 0, 0, false
	}
	n := *node
	// Descend to the smallest named leaf containing pos: a reference
	// capture's node is usually the identifier itself, but when the
	// query has no @local.reference pattern for this construct the
	// nearest named node found by range may be a wrapping expression.
	for {
		childCount := n.NamedChildCount()
		if childCount == 0 {
			break
		}
		var next *tree_sitter.Node
		for i := uint(0); i < childCount; i++ {
			child := n.NamedChild(i)
			if child == nil {
				continue
			}
			if pos >= child.StartByte() && pos < child.EndByte() {
				next = child
				break
			}
		}
		if next == nil {
			break
		}
		n = *next
	}
	if n.StartByte() == n.EndByte() {
		return "", 0, 0, false
	}
	return string(text[n.StartByte():n.EndByte()]), n.StartByte(), n.EndByte(), true
}

// ByteRangeToRange translates a byte span in index's document into an
// LSP Range, mirroring selection.Build's nodeRange for the same
// byteOffset convention (0 for the host tree, an injection region's
// EffectiveStartByte for a region's own local tree).
func ByteRangeToRange(index *document.LineIndex, startByte, endByte uint, byteOffset int) Range {
	sl, _ := index.ByteToPoint(int(startByte) + byteOffset)
	sc := index.ByteToUTF16Column(int(startByte) + byteOffset)
	el, _ := index.ByteToPoint(int(endByte) + byteOffset)
	ec := index.ByteToUTF16Column(int(endByte) + byteOffset)
	return Range{Start: Position{Line: sl, Character: sc}, End: Position{Line: el, Character: ec}}
}
