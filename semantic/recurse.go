package semantic

import (
	"context"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/grammar"
	"github.com/teranos/treesitter-ls/injection"
	"github.com/teranos/treesitter-ls/parser"
)

// Mapper resolves the capture mapper to use for a given language id
// (filetype-specific captureMappings merged over the wildcard "_"
// entry). The settings package supplies the concrete implementation.
type Mapper func(languageID string) CaptureMapper

// CollectContext bundles everything token collection needs about the
// host document so Collect/recursion call sites stay short.
type CollectContext struct {
	Registry         *grammar.Registry
	Pools            *parser.Pools
	HostGrammar      *grammar.Grammar
	HostLanguageID   string
	HostRoot         tree_sitter.Node
	HostText         []byte
	HostIndex        *document.LineIndex
	Mapper           Mapper
	MultilineSupport bool
}

// CollectDocument collects raw tokens for the host document plus every
// injection region (sequentially, depth-first), given the region set
// the injection engine already discovered for this parse.
func CollectDocument(ctx context.Context, cc CollectContext, regions []injection.Region) []RawToken {
	var out []RawToken
	out = append(out, Collect(cc.HostGrammar.Highlights, cc.HostRoot, cc.HostText, cc.HostIndex, 0, cc.Mapper(cc.HostLanguageID), cc.MultilineSupport, 0)...)

	for _, region := range topLevel(regions) {
		out = append(out, collectRegionRecursive(ctx, cc, region, regions, 1)...)
	}
	return out
}

func topLevel(regions []injection.Region) []injection.Region {
	var out []injection.Region
	for _, r := range regions {
		if r.ParentIndex < 0 {
			out = append(out, r)
		}
	}
	return out
}

func childrenOf(regions []injection.Region, parentID string) []injection.Region {
	var out []injection.Region
	for _, r := range regions {
		if r.Parent == parentID {
			out = append(out, r)
		}
	}
	return out
}

func collectRegionRecursive(ctx context.Context, cc CollectContext, region injection.Region, all []injection.Region, depth int) []RawToken {
	if depth > MaxInjectionDepth {
		return nil
	}

	g, ok := cc.Registry.Get(region.LanguageID)
	if !ok || g.Highlights == nil {
		return nil
	}

	content := cc.HostText[region.EffectiveStartByte:region.EffectiveEndByte]

	childParser, pool, ok := cc.Pools.Acquire(ctx, region.LanguageID, g.Language)
	if !ok {
		return nil
	}
	tree := childParser.Parse(content, nil)
	pool.Release(childParser)
	if tree == nil {
		return nil
	}
	defer tree.Close()

	var out []RawToken
	out = append(out, Collect(g.Highlights, *tree.RootNode(), content, cc.HostIndex, region.EffectiveStartByte, cc.Mapper(region.LanguageID), cc.MultilineSupport, depth)...)

	for _, child := range childrenOf(all, region.RegionID) {
		out = append(out, collectRegionRecursive(ctx, cc, child, all, depth+1)...)
	}
	return out
}
