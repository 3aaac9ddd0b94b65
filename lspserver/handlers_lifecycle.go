package lspserver

import (
	"os"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/teranos/treesitter-ls/logger"
	"github.com/teranos/treesitter-ls/semantic"
	"github.com/teranos/treesitter-ls/version"
)

// buildHandler assembles the protocol.Handler table, grounded on
// teranos-QNTX's GLSPHandler field set and extended with the
// selection-range/semantic-tokens-delta/semantic-tokens-range/
// code-action methods this server's scope adds.
func (s *Server) buildHandler() protocol.Handler {
	return protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		Exit:        s.exit,
		SetTrace:    s.setTrace,

		WorkspaceDidChangeConfiguration:  s.workspaceDidChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:   s.workspaceDidChangeWatchedFiles,
		WorkspaceDidChangeWorkspaceFolders: s.workspaceDidChangeWorkspaceFolders,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
		TextDocumentDidSave:   s.textDocumentDidSave,

		TextDocumentSemanticTokensFull:      s.semanticTokensFull,
		TextDocumentSemanticTokensFullDelta: s.semanticTokensFullDelta,
		TextDocumentSemanticTokensRange:     s.semanticTokensRange,

		TextDocumentDefinition:    s.textDocumentDefinition,
		TextDocumentSelectionRange: s.textDocumentSelectionRange,

		TextDocumentHover:       s.textDocumentHover,
		TextDocumentCompletion:  s.textDocumentCompletion,
		CompletionItemResolve:   s.completionItemResolve,
		TextDocumentReferences:  s.textDocumentReferences,
		TextDocumentCodeAction:  s.textDocumentCodeAction,
		CodeActionResolve:       s.codeActionResolve,
	}
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	// glsp's typed ClientCapabilities does not model the non-standard
	// textDocument.semanticTokens.multilineTokenSupport field some
	// clients declare; absent a way to read it back off the decoded
	// struct, this server takes the spec-safe default of splitting
	// every multiline capture into per-line tokens at initialize time.
	// A client that does support multiline tokens can still turn the
	// policy on afterward via workspace/didChangeConfiguration, which
	// workspaceDidChangeConfiguration below reads as a raw map.
	s.mu.Lock()
	s.multilineToken = false
	s.mu.Unlock()

	capabilities := s.handler.CreateServerCapabilities()

	openClose := true
	changeKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &changeKind,
	}

	capabilities.SemanticTokensProvider = protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     semanticTokenTypeLegend(),
			TokenModifiers: semanticTokenModifierLegend(),
		},
		Range: true,
		Full: map[string]any{
			"delta": true,
		},
	}

	capabilities.DefinitionProvider = true
	capabilities.SelectionRangeProvider = true
	capabilities.HoverProvider = true
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{".", ":", "\"", "'", "<", "/", "@"},
		ResolveProvider:   boolPtr(true),
	}
	capabilities.ReferencesProvider = true
	capabilities.CodeActionProvider = &protocol.CodeActionOptions{
		ResolveProvider: boolPtr(true),
	}

	serverVersion := version.Get().Version
	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &serverVersion,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	s.setContext(ctx)
	logger.SetClientSink(s)
	s.watcher.Start()
	logger.Logger.Infow("server initialized", "version", version.Get().Version)
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	s.mu.Lock()
	s.shutdownCalled = true
	s.mu.Unlock()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) exit(ctx *glsp.Context) error {
	s.mu.Lock()
	called := s.shutdownCalled
	s.mu.Unlock()

	s.Close()

	if called {
		os.Exit(0)
	}
	os.Exit(1)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceDidChangeConfiguration(ctx *glsp.Context, params *protocol.DidChangeConfigurationParams) error {
	overrides, _ := params.Settings.(map[string]any)

	// multilineTokenSupport isn't part of the settings schema loaded
	// through settingsMgr — it mirrors a client capability glsp can't
	// decode at initialize time — so it's read directly off the raw
	// override map instead of round-tripping through Settings.
	if multiline, ok := overrides["multilineTokenSupport"].(bool); ok {
		s.mu.Lock()
		s.multilineToken = multiline
		s.mu.Unlock()
	}

	snapshot, err := s.settingsMgr.Load(s.workDir, overrides)
	if err != nil {
		logger.Logger.Warnw("settings reload from workspace/didChangeConfiguration failed", logger.FieldError, err.Error())
		return nil
	}
	logger.Logger.Infow("settings reloaded from client configuration", logger.FieldCount, len(snapshot.Languages))
	return nil
}

func (s *Server) workspaceDidChangeWatchedFiles(ctx *glsp.Context, params *protocol.DidChangeWatchedFilesParams) error {
	return nil
}

func (s *Server) workspaceDidChangeWorkspaceFolders(ctx *glsp.Context, params *protocol.DidChangeWorkspaceFoldersParams) error {
	return nil
}

func boolPtr(v bool) *bool { return &v }

func semanticTokenTypeLegend() []string {
	return append([]string{}, semantic.TokenTypes...)
}

func semanticTokenModifierLegend() []string {
	return append([]string{}, semantic.TokenModifiers...)
}
