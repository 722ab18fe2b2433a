// Package toolregistry implements the thread-safe mapping from tool
// name to (declaration, handler) that backs the engine's tools/list and
// tools/call dispatch. A handler panic is converted into an isError
// tool result rather than crashing the calling goroutine, so a single
// misbehaving tool cannot take down the engine's message-handling
// thread.
package toolregistry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mcpmqtt/server-go/mcp"
)

// Handler is a pure function from a JSON-encoded arguments object to a
// tool call result. The registry never validates args against the
// tool's declared input schema before calling Handler.
type Handler func(args json.RawMessage) (*mcp.CallToolResult, error)

type entry struct {
	tool    mcp.Tool
	handler Handler
}

// Registry is a thread-safe tool-name to (tool, handler) mapping.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty Registry ready for use.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds tool with the given handler. It returns false without
// modifying the registry if a tool with the same name is already
// present; there is no overwrite path.
func (r *Registry) Register(tool mcp.Tool, handler Handler) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tool.Name]; exists {
		return false
	}
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return true
}

// Unregister removes name. It is a no-op if name is absent.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// List returns a stable snapshot of the registered tool descriptors.
// Ordering is unspecified.
func (r *Registry) List() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.tool)
	}
	return out
}

// Has reports whether name is currently registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Call invokes the named tool's handler with argsJSON. A missing tool
// yields an isError result rather than an error return; callers map
// this straight into a JSON-RPC success response per spec. The handler
// runs under the registry's lock, serializing tool calls by default.
func (r *Registry) Call(name string, argsJSON json.RawMessage) *mcp.CallToolResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return mcp.NewErrorResult(fmt.Sprintf("Tool not found: %s", name))
	}
	return Invoke(e.handler, argsJSON)
}

// Lookup returns a snapshot of the named tool's handler without holding
// the registry lock across invocation, letting a caller invoke it
// concurrently with other calls (the relaxed-locking mode spec.md §5
// permits). The bool is false if name is not registered.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

// Invoke runs handler with argsJSON, converting a panic or error escape
// into an isError tool result instead of propagating it to the caller.
// It is the shared panic-recovery path used by both Call and any
// lock-free invocation built on top of Lookup.
func Invoke(handler Handler, argsJSON json.RawMessage) (result *mcp.CallToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = mcp.NewErrorResult(toolPanicMessage(rec))
		}
	}()

	res, err := handler(argsJSON)
	if err != nil {
		return mcp.NewErrorResult(toolErrorMessage(err))
	}
	if res == nil {
		return mcp.NewErrorResult("Unknown error during tool execution")
	}
	return res
}

func toolPanicMessage(rec any) string {
	if rec == nil {
		return "Unknown error during tool execution"
	}
	if err, ok := rec.(error); ok {
		return fmt.Sprintf("Tool execution error: %v", err)
	}
	return fmt.Sprintf("Tool execution error: %v", rec)
}

func toolErrorMessage(err error) string {
	if err == nil {
		return "Unknown error during tool execution"
	}
	return fmt.Sprintf("Tool execution error: %v", err)
}
