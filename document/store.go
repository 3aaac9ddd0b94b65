// Package document owns the authoritative per-URI text/tree pairing and
// the translation of incoming LSP edits into tree-sitter incremental
// parses. No other component is allowed to mutate a Document's tree or
// text directly.
package document

import (
	"context"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/errors"
)

// Document is one open text document. Tree always describes Text exactly
// — updating one without the other is forbidden; Change() is the only
// path that is allowed to touch either field. PreviousTree/PreviousText
// are non-authoritative hints kept for callers (e.g. the cache
// coordinator) that want to diff across an edit.
type Document struct {
	URI        string
	LanguageID string

	Text []byte
	Tree *tree_sitter.Tree
	Index *LineIndex

	PreviousText []byte
	PreviousTree *tree_sitter.Tree

	// SemanticTokensCacheID is not written by the store or by the cache
	// coordinator; semantic-token result ids are issued by
	// cache.ResultIDs.
	SemanticTokensCacheID string
}

// Parser is the minimal interface Store needs from a checked-out
// tree-sitter parser, so tests can substitute a fake.
type Parser interface {
	Parse(content []byte, oldTree *tree_sitter.Tree) *tree_sitter.Tree
}

// QuarantineGuard brackets a native parse attempt with crash-recovery
// markers: MarkBegin before, MarkEnd after a clean return. An unpaired
// MarkBegin (the process died inside p.Parse) quarantines the language so
// IsQuarantined short-circuits every later attempt to "no tree" until the
// quarantine is cleared. Satisfied by *grammar.FailedRegistry; declared
// here, rather than imported, so this package has no dependency on
// grammar.
type QuarantineGuard interface {
	IsQuarantined(languageID string) bool
	MarkBegin(languageID string)
	MarkEnd(languageID string)
}

// Store owns every open Document, keyed by URI.
type Store struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	failed QuarantineGuard
}

// NewStore creates an empty document store. failed may be nil, in which
// case no crash-recovery quarantine is applied (used by tests that stub
// out Parser directly).
func NewStore(failed QuarantineGuard) *Store {
	return &Store{docs: make(map[string]*Document), failed: failed}
}

func (s *Store) markBegin(languageID string) {
	if s.failed != nil {
		s.failed.MarkBegin(languageID)
	}
}

func (s *Store) markEnd(languageID string) {
	if s.failed != nil {
		s.failed.MarkEnd(languageID)
	}
}

// Open parses text with the given parser (already bound to languageID's
// grammar) and stores the result. The parse attempt is bracketed with
// crash-recovery markers; a languageID already quarantined by a previous
// crash short-circuits without calling p.Parse at all.
func (s *Store) Open(_ context.Context, uri, languageID string, text []byte, p Parser) (*Document, error) {
	if s.failed != nil && s.failed.IsQuarantined(languageID) {
		return nil, errors.Newf("document: %s is quarantined after a previous parser crash", languageID)
	}

	s.markBegin(languageID)
	tree := p.Parse(text, nil)
	s.markEnd(languageID)
	if tree == nil {
		return nil, errors.Newf("document: parser produced no tree for %s", uri)
	}

	doc := &Document{
		URI:        uri,
		LanguageID: languageID,
		Text:       text,
		Tree:       tree,
		Index:      NewLineIndex(text),
	}

	s.mu.Lock()
	s.docs[uri] = doc
	s.mu.Unlock()

	return doc, nil
}

// Get returns the document for uri, if open.
func (s *Store) Get(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[uri]
	return d, ok
}

// Close drops all state for uri.
func (s *Store) Close(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.docs[uri]; ok {
		if d.Tree != nil {
			d.Tree.Close()
		}
		if d.PreviousTree != nil {
			d.PreviousTree.Close()
		}
	}
	delete(s.docs, uri)
}

// Change applies a batch of LSP edits to the document at uri, reparsing
// incrementally with the edited tree as the parser's starting point. The
// edits are applied to the Document's own Text/Tree in place — the
// caller must hold no other reference expecting the old Text/Tree to
// remain valid after this call returns.
func (s *Store) Change(_ context.Context, uri string, edits []Edit, p Parser) (*Document, []tree_sitter.InputEdit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[uri]
	if !ok {
		return nil, nil, errors.Newf("document: change for unopened document %s", uri)
	}

	if s.failed != nil && s.failed.IsQuarantined(doc.LanguageID) {
		return nil, nil, errors.Newf("document: %s is quarantined after a previous parser crash", doc.LanguageID)
	}

	prevText := doc.Text
	prevTree := doc.Tree

	newText := doc.Text
	inputEdits := make([]tree_sitter.InputEdit, 0, len(edits))
	for _, e := range edits {
		var inputEdit tree_sitter.InputEdit
		newText, inputEdit = ApplyEdit(newText, doc.Index, e)
		if doc.Tree != nil {
			doc.Tree.Edit(inputEdit)
		}
		doc.Index = NewLineIndex(newText)
		inputEdits = append(inputEdits, inputEdit)
	}

	s.markBegin(doc.LanguageID)
	newTree := p.Parse(newText, doc.Tree)
	s.markEnd(doc.LanguageID)
	if newTree == nil {
		return nil, nil, errors.Newf("document: reparse produced no tree for %s", uri)
	}

	if doc.PreviousTree != nil {
		doc.PreviousTree.Close()
	}
	doc.PreviousText = prevText
	doc.PreviousTree = prevTree
	doc.Text = newText
	doc.Tree = newTree
	doc.Index = NewLineIndex(newText)

	return doc, inputEdits, nil
}
