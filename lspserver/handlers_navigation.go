package lspserver

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/definition"
	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/grammar"
	"github.com/teranos/treesitter-ls/injection"
	"github.com/teranos/treesitter-ls/selection"
)

// textDocumentDefinition resolves goto-definition natively via the
// locals-query scope table for whichever tree (host or innermost
// injection region) the cursor sits in. A region's locals table has no
// notion of host-level bindings, so a reference that does not resolve
// within its own region's scope chain simply comes back empty rather
// than falling through to the host tree.
func (s *Server) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	pos := uint(doc.Index.UTF16ColumnToByte(int(params.Position.Line), int(params.Position.Character)))

	if interval, hasRegions := s.cache.Interval(uri); hasRegions {
		if region, ok := interval.Innermost(pos); ok {
			return s.definitionWithinRegion(uri, doc, region, pos)
		}
	}

	hostRoot := *doc.Tree.RootNode()
	startByte, endByte, ok := resolveDefinition(s.registry, doc.LanguageID, hostRoot, doc.Text, pos)
	if !ok {
		return nil, nil
	}

	loc := definition.ByteRangeToRange(doc.Index, startByte, endByte, 0)
	return &protocol.Location{URI: uri, Range: toProtocolRange(loc)}, nil
}

// definitionWithinRegion reparses region's own content (the same
// on-demand local-tree pattern semantic.collectRegionRecursive uses for
// token collection) and resolves the reference against that region's
// own locals table, translating the result back into host coordinates
// via the region's effective start byte.
func (s *Server) definitionWithinRegion(uri string, doc *document.Document, region injection.Region, pos uint) (any, error) {
	g, ok := s.registry.Get(region.LanguageID)
	if !ok {
		return nil, nil
	}

	content := region.EffectiveText(doc.Text)
	childParser, pool, ok := s.pools.Acquire(context.Background(), region.LanguageID, g.Language)
	if !ok {
		return nil, nil
	}
	tree := childParser.Parse(content, nil)
	pool.Release(childParser)
	if tree == nil {
		return nil, nil
	}
	defer tree.Close()

	localPos := pos - region.EffectiveStartByte
	startByte, endByte, ok := resolveDefinition(s.registry, region.LanguageID, *tree.RootNode(), content, localPos)
	if !ok {
		return nil, nil
	}

	loc := definition.ByteRangeToRange(doc.Index, startByte, endByte, int(region.EffectiveStartByte))
	return &protocol.Location{URI: uri, Range: toProtocolRange(loc)}, nil
}

func resolveDefinition(registry *grammar.Registry, languageID string, root tree_sitter.Node, text []byte, pos uint) (startByte, endByte uint, ok bool) {
	g, ok := registry.Get(languageID)
	if !ok || g.Locals == nil {
		return 0, 0, false
	}

	name, _, _, ok := definition.NameAt(root, text, pos)
	if !ok {
		return 0, 0, false
	}

	table := definition.Build(g.Locals, root, text)
	return table.Resolve(name, pos)
}

func (s *Server) textDocumentSelectionRange(ctx *glsp.Context, params *protocol.SelectionRangeParams) ([]protocol.SelectionRange, error) {
	uri := params.TextDocument.URI
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, nil
	}

	interval, hasRegions := s.cache.Interval(uri)

	out := make([]protocol.SelectionRange, 0, len(params.Positions))
	for _, pos := range params.Positions {
		byteOffset := uint(doc.Index.UTF16ColumnToByte(int(pos.Line), int(pos.Character)))

		var sr *selection.SelectionRange
		if hasRegions {
			if region, ok := interval.Innermost(byteOffset); ok {
				sr = s.selectionRangeInRegion(doc, region, byteOffset)
			}
		}
		if sr == nil {
			hostRoot := *doc.Tree.RootNode()
			node := hostRoot.NamedDescendantForByteRange(byteOffset, byteOffset)
			if node == nil {
				out = append(out, protocol.SelectionRange{Range: protocol.Range{Start: pos, End: pos}})
				continue
			}
			sr = selection.Build(*node, doc.Index, 0)
		}
		out = append(out, toProtocolSelectionRange(sr))
	}
	return out, nil
}

// selectionRangeInRegion reparses region's own content, finds the local
// node at byteOffset, and splices its ancestor chain across the
// injection boundary into the host tree via selection.BuildAcrossInjection.
func (s *Server) selectionRangeInRegion(doc *document.Document, region injection.Region, byteOffset uint) *selection.SelectionRange {
	g, ok := s.registry.Get(region.LanguageID)
	if !ok {
		return nil
	}

	content := region.EffectiveText(doc.Text)
	childParser, pool, ok := s.pools.Acquire(context.Background(), region.LanguageID, g.Language)
	if !ok {
		return nil
	}
	tree := childParser.Parse(content, nil)
	pool.Release(childParser)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	localPos := byteOffset - region.EffectiveStartByte
	localNode := tree.RootNode().NamedDescendantForByteRange(localPos, localPos)
	if localNode == nil {
		return nil
	}

	hostRoot := *doc.Tree.RootNode()
	return selection.BuildAcrossInjection(*localNode, region, hostRoot, doc.Index)
}

func toProtocolRange(r definition.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(r.Start.Line), Character: protocol.UInteger(r.Start.Character)},
		End:   protocol.Position{Line: protocol.UInteger(r.End.Line), Character: protocol.UInteger(r.End.Character)},
	}
}

func toProtocolSelectionRange(sr *selection.SelectionRange) protocol.SelectionRange {
	if sr == nil {
		return protocol.SelectionRange{}
	}
	out := protocol.SelectionRange{
		Range: protocol.Range{
			Start: protocol.Position{Line: protocol.UInteger(sr.Range.Start.Line), Character: protocol.UInteger(sr.Range.Start.Character)},
			End:   protocol.Position{Line: protocol.UInteger(sr.Range.End.Line), Character: protocol.UInteger(sr.Range.End.Character)},
		},
	}
	if sr.Parent != nil {
		parent := toProtocolSelectionRange(sr.Parent)
		out.Parent = &parent
	}
	return out
}
