package injection

import (
	"context"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/grammar"
	"github.com/teranos/treesitter-ls/parser"
)

// CollectAll discovers every injection region in doc, including those
// nested inside other injections, down to MaxDepth. Each nested
// region's content is parsed with a pooled parser for its own language
// so its injections query can run in turn; those transient trees are
// closed before CollectAll returns — only the Region metadata (byte
// ranges, language id, hash) survives, the same contract
// semantic.collectRegionRecursive relies on when it re-parses each region itself to
// walk its highlight captures.
//
// The returned slice's ParentIndex fields reference positions within
// the same slice; call ResolveParents once the Tracker has assigned
// RegionIDs to translate ParentIndex into the public Parent field.
func CollectAll(ctx context.Context, registry *grammar.Registry, pools *parser.Pools, rootGrammar *grammar.Grammar, root tree_sitter.Node, text []byte) []Region {
	acc := &[]Region{}
	collectRecursive(ctx, registry, pools, rootGrammar, root, text, 0, -1, acc)
	return *acc
}

func collectRecursive(ctx context.Context, registry *grammar.Registry, pools *parser.Pools, g *grammar.Grammar, node tree_sitter.Node, text []byte, depth, parentIndex int, acc *[]Region) {
	if depth >= MaxDepth {
		return
	}

	top := Discover(ctx, registry, g, node, text)
	if len(top) == 0 {
		return
	}

	for _, region := range top {
		region.Depth = depth
		region.ParentIndex = parentIndex
		*acc = append(*acc, region)
		thisIndex := len(*acc) - 1

		collectNested(ctx, registry, pools, region, text, depth, thisIndex, acc)
	}
}

func collectNested(ctx context.Context, registry *grammar.Registry, pools *parser.Pools, region Region, text []byte, depth, selfIndex int, acc *[]Region) {
	childGrammar, ok := registry.Get(region.LanguageID)
	if !ok || childGrammar.Injections == nil {
		return
	}

	childParser, pool, ok := pools.Acquire(ctx, region.LanguageID, childGrammar.Language)
	if !ok {
		return
	}
	defer pool.Release(childParser)

	content := text[region.EffectiveStartByte:region.EffectiveEndByte]
	childTree := childParser.Parse(content, nil)
	if childTree == nil {
		return
	}
	defer childTree.Close()

	// Nested discovery runs against the injection's own content bytes;
	// translate content-relative byte offsets back to host-document
	// offsets before they reach the shared accumulator.
	before := len(*acc)
	collectRecursive(ctx, registry, pools, childGrammar, *childTree.RootNode(), content, depth+1, selfIndex, acc)
	for i := before; i < len(*acc); i++ {
		(*acc)[i].ContentStartByte += region.EffectiveStartByte
		(*acc)[i].ContentEndByte += region.EffectiveStartByte
		(*acc)[i].EffectiveStartByte += region.EffectiveStartByte
		(*acc)[i].EffectiveEndByte += region.EffectiveStartByte
	}
}

// ResolveParents fills in each region's Parent field from ParentIndex,
// once RegionID has been assigned (by Tracker.Assign) for every region
// in the slice.
func ResolveParents(regions []Region) {
	for i := range regions {
		if regions[i].ParentIndex >= 0 && regions[i].ParentIndex < len(regions) {
			regions[i].Parent = regions[regions[i].ParentIndex].RegionID
		}
	}
}
