// Package grammar loads tree-sitter grammars and their associated
// highlights/locals/injections queries, and resolves a document's
// language id through the filetype/shebang/alias detection chain.
package grammar

import (
	"context"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.uber.org/zap"

	"github.com/teranos/treesitter-ls/errors"
	"github.com/teranos/treesitter-ls/logger"
)

// Event is a non-fatal condition surfaced while loading a grammar (missing
// file, query parse error). Events never fail EnsureLoaded on their own.
type Event struct {
	LanguageID string
	Message    string
	Fatal      bool
}

// Grammar is a fully loaded language: the native parser handle plus
// whichever of the three queries compiled successfully. Created once per
// id and kept for the process's lifetime.
type Grammar struct {
	LanguageID string
	Language   *tree_sitter.Language

	Highlights *tree_sitter.Query
	Locals     *tree_sitter.Query
	Injections *tree_sitter.Query
}

// Registry maps language id to loaded Grammar. Safe for concurrent use; a
// read-biased RWMutex is used since lookups vastly outnumber loads.
type Registry struct {
	mu   sync.RWMutex
	data map[string]*Grammar

	loader     *Loader
	queries    *QueryLoader
	failed     *FailedRegistry
	normalizer map[string]string

	log *zap.SugaredLogger
}

// NewRegistry constructs a Registry that searches the given directories
// (each expected to contain parser/ and queries/ subdirectories) and
// persists crash-recovery state under dataDir.
func NewRegistry(searchPaths []string, dataDir string) (*Registry, error) {
	failed, err := NewFailedRegistry(dataDir)
	if err != nil {
		return nil, errors.Wrap(err, "open failed-parser registry")
	}

	return &Registry{
		data:       make(map[string]*Grammar),
		loader:     NewLoader(searchPaths),
		queries:    NewQueryLoader(searchPaths),
		failed:     failed,
		normalizer: defaultNormalizationTable(),
		log:        logger.ComponentLogger("grammar"),
	}, nil
}

// Get returns the loaded grammar for id, if any.
func (r *Registry) Get(id string) (*Grammar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.data[id]
	return g, ok
}

// EnsureLoaded idempotently loads a grammar by language id. It is safe to
// call repeatedly; once loaded, a grammar is never reloaded. Loading a
// shared library is a distinct failure mode from a native parse crash.
// The crash-recovery quarantine tracked in Failed() brackets
// document.Store's parse attempts, not this method; see ClearQuarantine.
func (r *Registry) EnsureLoaded(ctx context.Context, id string) (bool, []Event) {
	if _, ok := r.Get(id); ok {
		return true, nil
	}

	var events []Event

	lang, err := r.loader.Load(ctx, id)
	if err != nil {
		// Symbol-resolution failure is fatal for this id only; a missing
		// shared library is reported the same way but distinguishable by
		// message for callers that want to react differently.
		events = append(events, Event{LanguageID: id, Message: err.Error(), Fatal: true})
		return false, events
	}

	g := &Grammar{LanguageID: id, Language: lang}

	if q, loadEvents := r.queries.Load(id, "highlights", lang); q != nil {
		g.Highlights = q
	} else {
		events = append(events, loadEvents...)
	}
	if q, loadEvents := r.queries.Load(id, "locals", lang); q != nil {
		g.Locals = q
	} else {
		events = append(events, loadEvents...)
	}
	if q, loadEvents := r.queries.Load(id, "injections", lang); q != nil {
		g.Injections = q
	} else {
		events = append(events, loadEvents...)
	}

	r.mu.Lock()
	r.data[id] = g
	r.mu.Unlock()

	for _, ev := range events {
		r.log.Warnw("grammar load event", "language_id", id, "message", ev.Message)
	}
	return true, events
}

// ClearQuarantine removes a language from the failed-parser registry so
// the next parse attempt for it is allowed to proceed again. This is the
// user-facing "clear quarantine and retry" escape hatch.
func (r *Registry) ClearQuarantine(id string) {
	r.failed.Clear(id)
}

// Failed returns the crash-recovery registry backing ClearQuarantine, so
// callers that actually attempt parses (document.Store) can bracket those
// attempts with begin/end markers and gate on quarantine state.
func (r *Registry) Failed() *FailedRegistry {
	return r.failed
}

// Detect resolves the language id for a document using the fallback
// chain: (1) hint, when not "plaintext" and a parser is available for it;
// (2) shebang parsing of the first line; (3) extension-based lookup.
// Availability against the registry (or loadability via EnsureLoaded) is
// confirmed after each step.
func (r *Registry) Detect(ctx context.Context, path, languageIDHint string, content []byte) (string, bool) {
	if languageIDHint != "" && languageIDHint != "plaintext" {
		if ok, _ := r.EnsureLoaded(ctx, languageIDHint); ok {
			return languageIDHint, true
		}
	}

	if id, ok := detectShebang(content); ok {
		if ok, _ := r.EnsureLoaded(ctx, id); ok {
			return id, true
		}
	}

	if id, ok := detectExtension(path); ok {
		if ok, _ := r.EnsureLoaded(ctx, id); ok {
			return id, true
		}
	}

	return "", false
}

// ResolveInjectionLanguage tries raw as-is, then a normalization table
// (py->python, js->javascript, sh->bash, ...), loading whichever first
// resolves to an available grammar.
func (r *Registry) ResolveInjectionLanguage(ctx context.Context, raw string) (resolved string, ok bool) {
	if ok, _ := r.EnsureLoaded(ctx, raw); ok {
		return raw, true
	}
	if normalized, has := r.normalizer[raw]; has {
		if ok, _ := r.EnsureLoaded(ctx, normalized); ok {
			return normalized, true
		}
	}
	return raw, false
}

func defaultNormalizationTable() map[string]string {
	return map[string]string{
		"py":     "python",
		"js":     "javascript",
		"ts":     "typescript",
		"sh":     "bash",
		"rb":     "ruby",
		"yml":    "yaml",
		"md":     "markdown",
		"rs":     "rust",
		"cs":     "c_sharp",
		"c++":    "cpp",
		"golang": "go",
	}
}
