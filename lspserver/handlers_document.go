package lspserver

import (
	"context"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/treesitter-ls/bridge"
	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/grammar"
	"github.com/teranos/treesitter-ls/injection"
	"github.com/teranos/treesitter-ls/logger"
)

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := []byte(params.TextDocument.Text)

	g, ok, err := s.openDocument(context.Background(), uri, params.TextDocument.LanguageID, text)
	if err != nil {
		logger.Logger.Warnw("didOpen failed", logger.FieldURI, uri, logger.FieldError, err.Error())
		return nil
	}
	if !ok {
		return nil
	}

	s.reparse(context.Background(), uri, g)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	doc, ok := s.docs.Get(uri)
	if !ok {
		return nil
	}

	edits := make([]document.Edit, 0, len(params.ContentChanges))
	for _, raw := range params.ContentChanges {
		edits = append(edits, toDocumentEdit(raw))
	}

	g, ok := s.registry.Get(doc.LanguageID)
	if !ok {
		return nil
	}

	background := context.Background()
	childParser, pool, ok := s.pools.Acquire(background, doc.LanguageID, g.Language)
	if !ok {
		logger.Logger.Warnw("didChange: no parser available", logger.FieldURI, uri, logger.FieldLanguage, doc.LanguageID)
		return nil
	}

	_, inputEdits, err := s.docs.Change(background, uri, edits, childParser)
	pool.Release(childParser)
	if err != nil {
		logger.Logger.Warnw("didChange: reparse failed", logger.FieldURI, uri, logger.FieldError, err.Error())
		return nil
	}

	s.cache.InvalidateByEdits(uri, inputEdits)
	s.reparse(background, uri, g)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	s.docs.Close(uri)
	s.cache.Close(uri)

	set := s.virtualDocsFor(uri)
	for _, v := range set.RetireAllExcept(map[string]struct{}{}) {
		if conn, ok := s.bridges.Get(v.ServerName); ok {
			_ = v.Close(context.Background(), conn)
		}
	}
	s.dropVirtualDocs(uri)
	return nil
}

func (s *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	return nil
}

// openDocument detects the document's language, acquires a parser, and
// hands the text to the document store, returning the grammar used so
// the caller can run injection discovery without a second registry
// lookup.
func (s *Server) openDocument(ctx context.Context, uri, languageIDHint string, text []byte) (*grammar.Grammar, bool, error) {
	languageID, ok := s.registry.Detect(ctx, uri, languageIDHint, text)
	if !ok {
		logger.Logger.Debugw("no grammar available for document", logger.FieldURI, uri, logger.FieldLanguage, languageIDHint)
		return nil, false, nil
	}

	g, ok := s.registry.Get(languageID)
	if !ok {
		return nil, false, nil
	}

	childParser, pool, ok := s.pools.Acquire(ctx, languageID, g.Language)
	if !ok {
		return nil, false, nil
	}
	defer pool.Release(childParser)

	if _, err := s.docs.Open(ctx, uri, languageID, text, childParser); err != nil {
		return nil, false, err
	}
	return g, true, nil
}

// reparse discovers injection regions for uri's current tree, refreshes
// the coordinator's region map, and reconciles this document's virtual
// documents against configured downstream bridges.
func (s *Server) reparse(ctx context.Context, uri string, g *grammar.Grammar) {
	doc, ok := s.docs.Get(uri)
	if !ok {
		return
	}

	regions := injection.CollectAll(ctx, s.registry, s.pools, g, *doc.Tree.RootNode(), doc.Text)
	regions = s.cache.PopulateAfterReparse(uri, regions)

	s.reconcileVirtualDocuments(ctx, uri, doc, regions)
}

func (s *Server) reconcileVirtualDocuments(ctx context.Context, hostURI string, doc *document.Document, regions []injection.Region) {
	set := s.virtualDocsFor(hostURI)
	snapshot := s.settingsNow()

	keep := make(map[string]struct{}, len(regions))
	for _, region := range regions {
		langCfg := snapshot.ResolvedLanguage(region.LanguageID)
		if langCfg.Bridge == "" {
			continue
		}
		keep[region.RegionID] = struct{}{}

		serverCfg := snapshot.ResolvedLanguageServer(langCfg.Bridge)
		if serverCfg.Cmd == "" {
			continue
		}

		conn, err := s.bridges.Ensure(ctx, bridge.ServerConfig{Name: langCfg.Bridge, Command: serverCfg.Cmd}, bridgeInitializeParams(serverCfg.InitializationOptions))
		if err != nil {
			logger.Logger.Warnw("bridge ensure failed", logger.FieldServer, langCfg.Bridge, logger.FieldError, err.Error())
			continue
		}

		startLine, _ := doc.Index.ByteToPoint(int(region.EffectiveStartByte))
		content := string(region.EffectiveText(doc.Text))

		if existing, ok := set.Get(region.RegionID); ok {
			if existing.Text != content {
				_ = existing.Change(ctx, conn, content)
			}
			continue
		}

		v := &bridge.VirtualDocument{
			URI:             bridge.VirtualURI(region.LanguageID, region.RegionID, region.LanguageID),
			LanguageID:      region.LanguageID,
			ServerName:      langCfg.Bridge,
			HostURI:         hostURI,
			RegionID:        region.RegionID,
			RegionStartLine: startLine,
			Text:            content,
		}
		if err := v.Open(ctx, conn); err != nil {
			logger.Logger.Warnw("virtual document open failed", logger.FieldServer, langCfg.Bridge, logger.FieldError, err.Error())
			continue
		}
		set.Put(v)
	}

	for _, retired := range set.RetireAllExcept(keep) {
		if conn, ok := s.bridges.Get(retired.ServerName); ok {
			_ = retired.Close(ctx, conn)
		}
	}
}

// bridgeInitializeParams builds the minimal initialize request a
// downstream server needs to start answering requests: this server
// acts purely as a coordinate-translating proxy, so it declares no
// client capabilities of its own and passes through only the
// downstream-specific initializationOptions block from settings.
func bridgeInitializeParams(initOptions map[string]any) any {
	return map[string]any{
		"processId":             nil,
		"rootUri":               nil,
		"capabilities":          map[string]any{},
		"initializationOptions": initOptions,
	}
}

func toDocumentEdit(raw interface{}) document.Edit {
	switch change := raw.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return document.Edit{EndLine: -1, NewText: change.Text}
	case protocol.TextDocumentContentChangeEvent:
		if change.Range == nil {
			return document.Edit{EndLine: -1, NewText: change.Text}
		}
		return document.Edit{
			StartLine:     int(change.Range.Start.Line),
			StartUTF16Col: int(change.Range.Start.Character),
			EndLine:       int(change.Range.End.Line),
			EndUTF16Col:   int(change.Range.End.Character),
			NewText:       change.Text,
		}
	default:
		return document.Edit{EndLine: -1}
	}
}
