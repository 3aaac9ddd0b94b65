// Package parser manages tree-sitter parser instances, pooled per
// language id so documents of the same language reuse parsers instead of
// allocating a fresh one per parse.
package parser

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/teranos/treesitter-ls/errors"
)

// ErrPoolClosed is returned by Acquire once Close has been called.
var ErrPoolClosed = errors.New("parser: pool is closed")

// Pool is a channel-backed idle pool of *tree_sitter.Parser bound to a
// single language. All capacity parsers are created up front by NewPool;
// Acquire blocks (respecting ctx) until one of them is idle, and Release
// returns the parser to the idle set.
type Pool struct {
	language *tree_sitter.Language

	idle    chan *tree_sitter.Parser
	closeCh chan struct{}

	closed  atomic.Bool
	holders sync.WaitGroup

	mu sync.Mutex
}

// NewPool creates a pool for language with the given capacity (the
// number of parsers that may exist concurrently). A non-positive
// capacity falls back to runtime.NumCPU().
func NewPool(language *tree_sitter.Language, capacity int) *Pool {
	if capacity <= 0 {
		capacity = runtime.NumCPU()
		if capacity <= 0 {
			capacity = 1
		}
	}

	p := &Pool{
		language: language,
		idle:     make(chan *tree_sitter.Parser, capacity),
		closeCh:  make(chan struct{}),
	}
	for i := 0; i < capacity; i++ {
		p.idle <- p.newParser()
	}
	return p
}

func (p *Pool) newParser() *tree_sitter.Parser {
	parser := tree_sitter.NewParser()
	_ = parser.SetLanguage(p.language)
	return parser
}

// Acquire returns an idle parser, or false if ctx is done or the pool is
// closed. Callers must Release the parser as soon as they no longer need
// it — the semantic pipeline releases each region's parser as soon as
// that region's parse returns, so no parser stays checked out across the
// whole request (see semantic/recurse.go).
func (p *Pool) Acquire(ctx context.Context) (*tree_sitter.Parser, bool) {
	if p.closed.Load() {
		return nil, false
	}

	select {
	case <-ctx.Done():
		return nil, false
	case <-p.closeCh:
		return nil, false
	case parser := <-p.idle:
		if p.closed.Load() {
			parser.Close()
			return nil, false
		}
		p.holders.Add(1)
		return parser, true
	}
}

// Release returns parser to the idle set, or closes it outright if the
// pool has since been closed.
func (p *Pool) Release(parser *tree_sitter.Parser) {
	if parser == nil {
		return
	}
	defer p.holders.Done()

	if p.closed.Load() {
		parser.Close()
		return
	}

	select {
	case p.idle <- parser:
	case <-p.closeCh:
		parser.Close()
	}
}

// Close drains and releases every idle parser, waiting for outstanding
// holders to Release first.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.closeCh)
	p.holders.Wait()

	for {
		select {
		case parser := <-p.idle:
			parser.Close()
		default:
			return
		}
	}
}

// Pools is a registry of per-language Pool instances, created lazily on
// first acquisition.
type Pools struct {
	mu    sync.Mutex
	byLID map[string]*Pool
}

// NewPools creates an empty per-language pool registry.
func NewPools() *Pools {
	return &Pools{byLID: make(map[string]*Pool)}
}

// Acquire gets-or-creates the pool for languageID and acquires a parser
// from it.
func (p *Pools) Acquire(ctx context.Context, languageID string, language *tree_sitter.Language) (*tree_sitter.Parser, *Pool, bool) {
	p.mu.Lock()
	pool, ok := p.byLID[languageID]
	if !ok {
		pool = NewPool(language, 0)
		p.byLID[languageID] = pool
	}
	p.mu.Unlock()

	parser, ok := pool.Acquire(ctx)
	return parser, pool, ok
}

// CloseAll closes every language pool.
func (p *Pools) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pool := range p.byLID {
		pool.Close()
	}
}
