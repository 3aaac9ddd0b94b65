// Package bridge forwards LSP requests into downstream "real" language
// servers, one child process per configured server name, over stdio
// JSON-RPC framing.
package bridge

import (
	"encoding/json"
	"sync"

	"github.com/teranos/treesitter-ls/errors"
)

// RPCError mirrors a JSON-RPC error object.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// MethodNotFound is returned to a downstream server-initiated request
// this bridge does not recognize.
const MethodNotFound = -32601

// InternalError is synthesized for every pending request when a
// connection fails (reader exit, writer failure, liveness timeout).
const InternalError = -32603

// RPCResponse is a JSON-RPC response body, decoded just enough to route
// it and let the caller unmarshal Result into its own type.
type RPCResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// Router delivers responses to the requester that is waiting for them,
// keyed by request id. register() must be called before the request is
// written so a response racing the registration can never be lost.
type Router struct {
	mu      sync.Mutex
	pending map[int64]chan *RPCResponse
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{pending: make(map[int64]chan *RPCResponse)}
}

// Register allocates a one-shot channel for id. The caller must
// eventually call Unregister(id), whether or not a response arrives
// (e.g. on context cancellation).
func (r *Router) Register(id int64) <-chan *RPCResponse {
	ch := make(chan *RPCResponse, 1)
	r.mu.Lock()
	r.pending[id] = ch
	r.mu.Unlock()
	return ch
}

// Unregister removes id's waiter without sending anything, for a
// requester that gave up (context cancelled, $/cancelRequest).
func (r *Router) Unregister(id int64) {
	r.mu.Lock()
	delete(r.pending, id)
	r.mu.Unlock()
}

// Route delivers resp to its requester. Three outcomes, none of which
// are errors to the caller: delivered, no such id (already unregistered
// or genuinely unknown — logged by the connection, not here), or the
// receiver's buffer was already full (cannot happen with a buffer of 1
// fed exactly once, but Route does not block regardless).
func (r *Router) Route(resp *RPCResponse) (delivered bool) {
	r.mu.Lock()
	ch, ok := r.pending[resp.ID]
	if ok {
		delete(r.pending, resp.ID)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	select {
	case ch <- resp:
		return true
	default:
		return false
	}
}

// FailAll completes every still-pending request with a synthetic
// InternalError response carrying reason, and clears the pending map.
func (r *Router) FailAll(reason string) {
	r.mu.Lock()
	pending := r.pending
	r.pending = make(map[int64]chan *RPCResponse)
	r.mu.Unlock()

	for _, ch := range pending {
		select {
		case ch <- &RPCResponse{Error: &RPCError{Code: InternalError, Message: reason}}:
		default:
		}
	}
}

// ErrShutdown is returned by a connection whose writer has already
// closed when a new call is attempted against it.
var ErrShutdown = errors.New("bridge: connection is shut down")
