package injection

import (
	"context"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/grammar"
)

// MaxDepth bounds injection recursion. Cycles in the "injection
// languages" set are avoided naturally because recursion follows
// content bytes, not a language dependency graph, but pathological
// grammars (an injection query that injects its own language into
// itself) still need a hard floor.
const MaxDepth = 10

const (
	captureInjectionLanguage = "injection.language"
	captureInjectionContent  = "injection.content"
)

// Discover runs grammar's injections query against root (host document)
// and returns the top-level injection regions it finds — language id,
// content/effective byte ranges, pattern index, and any #offset!
// directive. It does not recurse into discovered regions; callers that
// want nested injections call Discover again against each region's own
// parsed tree (see CollectAll in collect.go).
func Discover(ctx context.Context, registry *grammar.Registry, g *grammar.Grammar, root tree_sitter.Node, text []byte) []Region {
	if g == nil || g.Injections == nil {
		return nil
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var regions []Region

	matches := cursor.Matches(g.Injections, &root, text)
	for {
		match := matches.Next()
		if match == nil {
			break
		}

		languageName, contentNode, ok := extractInjection(g.Injections, *match, text)
		if !ok || contentNode == nil {
			continue
		}

		// The language comes only from the query's language name, resolved
		// through ResolveInjectionLanguage; the region's content is not
		// inspected (no first-line or shebang detection).
		content := text[contentNode.StartByte():contentNode.EndByte()]
		resolved, ok := registry.ResolveInjectionLanguage(ctx, languageName)
		if !ok {
			continue
		}

		offset := offsetDirectiveForPattern(g.Injections, match.PatternIndex)
		effStart, effEnd, effStartPoint := applyOffset(
			text,
			contentNode.StartByte(), contentNode.EndByte(),
			contentNode.StartPosition(), contentNode.EndPosition(),
			offset,
		)

		regions = append(regions, Region{
			LanguageID:          resolved,
			ContentStartByte:    contentNode.StartByte(),
			ContentEndByte:      contentNode.EndByte(),
			EffectiveStartByte:  effStart,
			EffectiveEndByte:    effEnd,
			ContentStartPoint:   contentNode.StartPosition(),
			EffectiveStartPoint: effStartPoint,
			PatternIndex:        match.PatternIndex,
			Offset:              offset,
			ContentHash:         HashContent(text[effStart:effEnd]),
		})
		_ = content
	}

	return regions
}

// extractInjection pulls the injection language name and content node
// out of one query match, preferring an explicit @injection.language
// capture's text, falling back to a `#set! injection.language <id>`
// property when the query used that form instead.
func extractInjection(query *tree_sitter.Query, match tree_sitter.QueryMatch, source []byte) (string, *tree_sitter.Node, bool) {
	var (
		languageName string
		contentNode  *tree_sitter.Node
	)

	captureNames := query.CaptureNames()

	for _, capture := range match.Captures {
		if int(capture.Index) >= len(captureNames) {
			continue
		}
		name := captureNames[capture.Index]
		node := capture.Node
		switch name {
		case captureInjectionLanguage:
			languageName = node.Utf8Text(source)
		case captureInjectionContent:
			contentNode = &node
		}
	}

	if languageName == "" {
		for _, setting := range query.PropertySettings(match.PatternIndex) {
			if setting.Key == captureInjectionLanguage && setting.Value != nil {
				languageName = *setting.Value
			}
		}
	}

	if contentNode == nil || languageName == "" {
		return "", nil, false
	}
	return languageName, contentNode, true
}
