package lspserver

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/treesitter-ls/semantic"
	"github.com/teranos/treesitter-ls/settings"
)

func (s *Server) semanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	tokens, resultID, ok := s.computeFullTokens(uri)
	if !ok {
		return nil, nil
	}
	return &protocol.SemanticTokens{ResultID: &resultID, Data: tokens}, nil
}

func (s *Server) semanticTokensFullDelta(ctx *glsp.Context, params *protocol.SemanticTokensDeltaParams) (any, error) {
	uri := params.TextDocument.URI

	// The cache holds only the most recently computed stream per
	// document, so the client's previousResultId must be checked
	// against it before computeFullTokens overwrites the entry.
	prevTokens, prevOK := s.cache.Semantic.GetIfValid(uri, params.PreviousResultID)

	tokens, resultID, ok := s.computeFullTokens(uri)
	if !ok {
		return nil, nil
	}
	if !prevOK {
		return &protocol.SemanticTokens{ResultID: &resultID, Data: tokens}, nil
	}

	edit := semantic.ComputeDelta(prevTokens, tokens)
	return &protocol.SemanticTokensDelta{
		ResultID: &resultID,
		Edits: []protocol.SemanticTokensEdit{{
			Start:       edit.Start,
			DeleteCount: edit.DeleteCount,
			Data:        edit.Data,
		}},
	}, nil
}

func (s *Server) semanticTokensRange(ctx *glsp.Context, params *protocol.SemanticTokensRangeParams) (*protocol.SemanticTokens, error) {
	uri := params.TextDocument.URI
	tokens, _, ok := s.computeFullTokens(uri)
	if !ok {
		return nil, nil
	}

	ranged := semantic.FilterRange(tokens, semantic.Position{
		Line:      int(params.Range.Start.Line),
		Character: int(params.Range.Start.Character),
	}, semantic.Position{
		Line:      int(params.Range.End.Line),
		Character: int(params.Range.End.Character),
	})
	return &protocol.SemanticTokens{Data: ranged}, nil
}

// computeFullTokens resolves, collects and caches the full token stream
// for uri, tracking request supersession so that, when a newer token
// request for uri starts while this collection is in flight, this one
// does not cache its result.
func (s *Server) computeFullTokens(uri string) (tokens []uint32, resultID string, ok bool) {
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil, "", false
	}

	hostGrammar, ok := s.registry.Get(doc.LanguageID)
	if !ok {
		return nil, "", false
	}

	regions, _ := s.cache.Regions(uri)

	reqID := s.cache.Requests.Next(uri)

	snapshot := s.settingsNow()
	cc := semantic.CollectContext{
		Registry:         s.registry,
		Pools:            s.pools,
		HostGrammar:      hostGrammar,
		HostLanguageID:   doc.LanguageID,
		HostRoot:         *doc.Tree.RootNode(),
		HostText:         doc.Text,
		HostIndex:        doc.Index,
		Mapper:           captureMapperFor(snapshot),
		MultilineSupport: s.multilineTokenSupport(),
	}

	raw := semantic.CollectDocumentParallel(context.Background(), cc, regions)
	if !s.cache.Requests.IsActive(uri, reqID) {
		return nil, "", false
	}

	finalized := semantic.Finalize(raw)
	resultID = s.cache.ResultIDs.Next()
	s.cache.Semantic.Store(uri, resultID, finalized)

	return finalized, resultID, true
}

func (s *Server) multilineTokenSupport() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.multilineToken
}

// captureMapperFor resolves a language's captureMappings.highlights
// table (wildcard-merged) into a semantic.CaptureMapper.
func captureMapperFor(snapshot *settings.Settings) semantic.Mapper {
	return func(languageID string) semantic.CaptureMapper {
		mapping := snapshot.ResolvedCaptureMapping(languageID)
		return func(captureName string) (mapped string, suppress bool) {
			if override, ok := mapping.Highlights[captureName]; ok {
				if override == "" {
					return "", true
				}
				return override, false
			}
			return captureName, false
		}
	}
}
