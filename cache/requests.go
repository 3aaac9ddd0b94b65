package cache

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// RequestID is a monotonically increasing identifier for semantic-token
// requests. A second request for the same URI supersedes the first:
// workers poll IsActive to abort promptly instead of finishing stale
// work.
type RequestID uint64

// RequestTracker hands out RequestIDs and tracks, per URI, the newest
// one issued — the only one considered "active".
type RequestTracker struct {
	mu      sync.Mutex
	counter uint64
	active  map[string]RequestID
}

// NewRequestTracker creates an empty tracker.
func NewRequestTracker() *RequestTracker {
	return &RequestTracker{active: make(map[string]RequestID)}
}

// Next mints a new RequestID for uri and records it as the active one,
// superseding whatever was active for uri before.
func (t *RequestTracker) Next(uri string) RequestID {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	id := RequestID(t.counter)
	t.active[uri] = id
	return id
}

// IsActive reports whether id is still the newest request issued for
// uri. Workers call this between processing stages to abort early once
// a newer request has superseded them.
func (t *RequestTracker) IsActive(uri string, id RequestID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.active[uri]
	return ok && current == id
}

// Forget drops uri's tracked request entirely (document closed).
func (t *RequestTracker) Forget(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, uri)
}

// ResultIDs hands out process-global monotonic result-id strings for the
// semantic-token result-id scheme (LSP's previousResultId mechanism).
type ResultIDs struct {
	counter atomic.Uint64
}

// Next returns the next result id as a decimal string.
func (r *ResultIDs) Next() string {
	return strconv.FormatUint(r.counter.Add(1), 10)
}
