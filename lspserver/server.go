// Package lspserver wires the protocol_3_16 handler table from
// github.com/tliron/glsp to the grammar/parser/document/cache/semantic/
// definition/selection/bridge components, serving the result over
// stdio via github.com/tliron/glsp/server.
//
// Grounded on teranos-QNTX's server.GLSPHandler (server/lsp_handler.go):
// same struct-of-dependencies shape, same capability-building and
// document-lifecycle pattern, generalized here from a single
// gopls-backed Go server to a multi-language, multi-bridge one.
package lspserver

import (
	"context"
	"os"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
	"go.uber.org/zap/zapcore"

	// commonlog is a required dependency of github.com/tliron/glsp. We
	// silence it here via commonlog.Configure(0, nil) because this
	// server uses zap for all of its own logging; the blank import of
	// the "simple" backend is required by glsp at runtime.
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/teranos/treesitter-ls/bridge"
	"github.com/teranos/treesitter-ls/cache"
	"github.com/teranos/treesitter-ls/document"
	"github.com/teranos/treesitter-ls/errors"
	"github.com/teranos/treesitter-ls/grammar"
	"github.com/teranos/treesitter-ls/logger"
	"github.com/teranos/treesitter-ls/parser"
	"github.com/teranos/treesitter-ls/settings"
	"github.com/teranos/treesitter-ls/version"
)

const serverName = "treesitter-ls"

// Server owns every long-lived dependency the handler methods close
// over, plus the glsp plumbing (handler table, transport) that serves
// them over stdio.
type Server struct {
	workDir string

	settingsMgr *settings.Manager
	watcher     *settings.Watcher

	registry *grammar.Registry
	pools    *parser.Pools
	docs     *document.Store
	cache    *cache.Coordinator
	bridges  *bridge.Pool

	mu             sync.Mutex
	virtualDocs    map[string]*bridge.VirtualDocumentSet // keyed by host URI
	multilineToken bool

	ctxMu  sync.Mutex
	lspCtx *glsp.Context

	handler protocol.Handler
	server  *glspserver.Server

	shutdownCalled bool
}

// NewServer loads settings rooted at workDir, constructs every
// dependency, and builds (but does not yet start) the glsp handler
// table.
func NewServer(workDir string) (*Server, error) {
	commonlog.Configure(0, nil)

	mgr := settings.NewManager()
	snapshot, err := mgr.Load(workDir, nil)
	if err != nil {
		return nil, errors.Wrap(err, "load initial settings")
	}

	dataDir, err := dataDirFor(workDir)
	if err != nil {
		return nil, err
	}

	registry, err := grammar.NewRegistry(snapshot.SearchPaths, dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "construct grammar registry")
	}

	watcher, err := settings.NewWatcher(mgr, workDir)
	if err != nil {
		return nil, errors.Wrap(err, "construct settings watcher")
	}

	s := &Server{
		workDir:     workDir,
		settingsMgr: mgr,
		watcher:     watcher,
		registry:    registry,
		pools:       parser.NewPools(),
		docs:        document.NewStore(registry.Failed()),
		cache:       cache.NewCoordinator(),
		bridges:     bridge.NewPool(),
		virtualDocs: make(map[string]*bridge.VirtualDocumentSet),
	}

	watcher.OnReload(s.onSettingsReload)
	s.handler = s.buildHandler()
	s.server = glspserver.NewServer(&s.handler, serverName, false)

	return s, nil
}

func dataDirFor(workDir string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		base = workDir
	}
	dir := base + "/treesitter-ls"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create data directory %s", dir)
	}
	return dir, nil
}

// RunStdio serves the handler over stdin/stdout until the client
// disconnects or exit is received.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

// Close releases every pooled/background resource. Called from the exit
// handler whether or not shutdown came first.
func (s *Server) Close() {
	if s.watcher != nil {
		_ = s.watcher.Stop()
	}
	s.pools.CloseAll()
	_ = s.bridges.ShutdownAll(context.Background())
}

// setContext stashes the live glsp.Context so background goroutines
// (settings reload, bridge upstream-notification forwarding) can push
// server-initiated notifications to the client.
func (s *Server) setContext(ctx *glsp.Context) {
	s.ctxMu.Lock()
	s.lspCtx = ctx
	s.ctxMu.Unlock()
}

func (s *Server) context() *glsp.Context {
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	return s.lspCtx
}

// LogMessage implements logger.Sink, forwarding WARN+ records to the
// client via window/logMessage.
func (s *Server) LogMessage(level zapcore.Level, message string) {
	ctx := s.context()
	if ctx == nil {
		return
	}
	ctx.Notify("window/logMessage", &protocol.LogMessageParams{
		Type:    messageType(level),
		Message: message,
	})
}

func messageType(level zapcore.Level) protocol.MessageType {
	switch {
	case level >= zapcore.ErrorLevel:
		return protocol.MessageTypeError
	case level >= zapcore.WarnLevel:
		return protocol.MessageTypeWarning
	case level >= zapcore.InfoLevel:
		return protocol.MessageTypeInfo
	default:
		return protocol.MessageTypeLog
	}
}

// onSettingsReload runs on the watcher's goroutine after a debounced
// file change; it broadcasts a semantic-tokens refresh since capture
// mappings (and therefore token classification) may have changed.
func (s *Server) onSettingsReload(_ *settings.Settings) error {
	ctx := s.context()
	if ctx == nil {
		return nil
	}
	ctx.Call("workspace/semanticTokens/refresh", nil)
	return nil
}

func (s *Server) virtualDocsFor(hostURI string) *bridge.VirtualDocumentSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.virtualDocs[hostURI]
	if !ok {
		set = bridge.NewVirtualDocumentSet()
		s.virtualDocs[hostURI] = set
	}
	return set
}

func (s *Server) dropVirtualDocs(hostURI string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.virtualDocs, hostURI)
}

func (s *Server) settingsNow() *settings.Settings {
	snap := s.settingsMgr.Current()
	if snap == nil {
		return &settings.Settings{}
	}
	return snap
}
