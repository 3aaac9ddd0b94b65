package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/teranos/treesitter-ls/errors"
)

// ServerConfig is the subset of a languageServers.<name> settings entry
// a pool needs to spawn a connection.
type ServerConfig struct {
	Name            string
	Command         string
	LivenessTimeout time.Duration
}

// Pool holds at most one live Connection per configured server name and
// spawns one lazily on first use. Grounded on the same StdioClient
// lifecycle as Connection itself, extended here from a single client to
// a name-keyed map since a document can carry injections for several
// distinct downstream languages at once (e.g. embedded SQL and
// JavaScript in the same host file, each wanting its own server).
type Pool struct {
	mu    sync.Mutex
	conns map[string]*Connection
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{conns: make(map[string]*Connection)}
}

// Ensure returns the live connection for cfg.Name, spawning and
// initializing one if none exists yet or the previous one has failed.
func (p *Pool) Ensure(ctx context.Context, cfg ServerConfig, initParams any) (*Connection, error) {
	p.mu.Lock()
	existing, ok := p.conns[cfg.Name]
	p.mu.Unlock()

	if ok && existing.StateNow() != StateFailed {
		return existing, nil
	}

	argv, err := SplitCommand(cfg.Command)
	if err != nil {
		return nil, err
	}

	conn, err := Spawn(ctx, cfg.Name, argv, cfg.LivenessTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "ensure language server %s", cfg.Name)
	}

	if _, err := conn.Call(ctx, "initialize", initParams); err != nil {
		conn.SetState(StateFailed)
		return nil, errors.Wrapf(err, "initialize language server %s", cfg.Name)
	}
	if err := conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		conn.SetState(StateFailed)
		return nil, errors.Wrapf(err, "send initialized to %s", cfg.Name)
	}
	conn.SetState(StateReady)

	p.mu.Lock()
	p.conns[cfg.Name] = conn
	p.mu.Unlock()

	return conn, nil
}

// Get returns the connection currently registered for name, if any, with
// no spawn side effect.
func (p *Pool) Get(name string) (*Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[name]
	return c, ok
}

// ShutdownAll shuts every live connection down, collecting but not
// stopping early on individual errors.
func (p *Pool) ShutdownAll(ctx context.Context) error {
	p.mu.Lock()
	conns := make([]*Connection, 0, len(p.conns))
	for _, c := range p.conns {
		conns = append(conns, c)
	}
	p.conns = make(map[string]*Connection)
	p.mu.Unlock()

	var firstErr error
	for _, c := range conns {
		if err := c.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
