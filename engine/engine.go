// Package engine implements the Protocol Engine: the state machine and
// router that owns the MQTT topic grammar, drives per-client
// subscription lifecycle, dispatches JSON-RPC methods, and tracks each
// client session from initialize through notifications/initialized to
// its destruction. It is the single exported
// core package; cmd/mcp-mqtt-server glues it to a concrete transport
// and configuration.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mcpmqtt/server-go/auth"
	"github.com/mcpmqtt/server-go/internal/logctx"
	"github.com/mcpmqtt/server-go/mcp"
	"github.com/mcpmqtt/server-go/session"
	"github.com/mcpmqtt/server-go/session/memory"
	"github.com/mcpmqtt/server-go/toolregistry"
	"github.com/mcpmqtt/server-go/transport"
)

// ClientConnectedHandler is invoked exactly once per session, when
// notifications/initialized is observed for it.
type ClientConnectedHandler func(mcpClientID string)

// ClientDisconnectedHandler is invoked each time a
// notifications/disconnected for a client is handled, whether it
// arrives on the client's RPC topic or its presence topic. It is invoked
// even if no session existed for that client. Stop drops the remaining
// sessions without invoking it.
type ClientDisconnectedHandler func(mcpClientID string)

// Engine is the protocol state machine and router described by this
// module's component design. Configure it with New and functional
// Options, then Start it against a connected transport.Transport.
type Engine struct {
	logger *slog.Logger

	sessions session.Table
	registry *toolregistry.Registry

	authenticator       auth.Authenticator
	concurrentToolCalls bool

	mu           sync.Mutex // guards configuration fields below, pre/post start
	serverInfo   mcp.ImplementationInfo
	capabilities mcp.ServerCapabilities
	description  string
	meta         map[string]any

	onConnected    ClientConnectedHandler
	onDisconnected ClientDisconnectedHandler

	running  atomic.Bool
	t        transport.Transport
	serverID string
	srvName  string
}

// Option configures an Engine constructed with New.
type Option func(*Engine)

// WithLogger attaches a structured logger. Defaults to slog.Default().
// The logger's handler is wrapped with logctx.Handler so that log lines
// emitted while handling a message pick up the topic, session and
// JSON-RPC fields stashed on the context by the dispatch path.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = slog.New(logctx.Handler{Handler: l.Handler()})
		}
	}
}

// WithSessionTable overrides the default in-memory session.Table, e.g.
// with session/redishost for a multi-replica deployment.
func WithSessionTable(t session.Table) Option {
	return func(e *Engine) { e.sessions = t }
}

// WithAuthenticator installs an optional auth hook. When set, every
// initialize request must carry a bearer token (via the
// MCP-MQTT-AUTH user property or a params.authToken fallback) that
// CheckAuthentication accepts, or the engine responds with a JSON-RPC
// error instead of creating a session. Unset by default, matching the
// base protocol's no-auth posture.
func WithAuthenticator(a auth.Authenticator) Option {
	return func(e *Engine) { e.authenticator = a }
}

// WithConcurrentToolCalls relaxes the tool registry lock so that
// concurrent tools/call requests invoke their handlers without
// serializing on each other. Off by default (spec.md §5 permits either
// behavior; this module's default is the simpler serializing one).
func WithConcurrentToolCalls(enabled bool) Option {
	return func(e *Engine) { e.concurrentToolCalls = enabled }
}

// New constructs a stopped Engine. Call Configure/SetServiceDescription
// as needed, then Start against a connected transport.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:   slog.New(logctx.Handler{Handler: slog.Default().Handler()}),
		sessions: memory.New(),
		registry: toolregistry.New(),
		capabilities: mcp.ServerCapabilities{
			Tools: &mcp.ToolsCapability{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configure sets the serverInfo and capabilities advertised during
// initialize. It is idempotent and only meaningful before Start.
func (e *Engine) Configure(info mcp.ImplementationInfo, caps mcp.ServerCapabilities) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.serverInfo = info
	e.capabilities = caps
}

// SetServiceDescription sets the free-form description and optional
// metadata published in the retained server-online notification. Only
// meaningful before Start.
func (e *Engine) SetServiceDescription(description string, meta map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.description = description
	e.meta = meta
}

// SetClientConnectedHandler installs the callback fired when a session
// transitions to initialized.
func (e *Engine) SetClientConnectedHandler(fn ClientConnectedHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onConnected = fn
}

// SetClientDisconnectedHandler installs the callback fired when a
// session is destroyed.
func (e *Engine) SetClientDisconnectedHandler(fn ClientDisconnectedHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onDisconnected = fn
}

// RegisterTool adds tool to the registry. Returns false on a name
// collision; the first registration is never overwritten.
func (e *Engine) RegisterTool(tool mcp.Tool, handler toolregistry.Handler) bool {
	return e.registry.Register(tool, handler)
}

// UnregisterTool removes name from the registry. It is idempotent.
func (e *Engine) UnregisterTool(name string) {
	e.registry.Unregister(name)
}

// Tools returns a snapshot of the registered tool descriptors.
func (e *Engine) Tools() []mcp.Tool {
	return e.registry.List()
}

// ServerID returns the identifier this Engine started with.
func (e *Engine) ServerID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serverID
}

// ServerName returns the serverName this Engine started with.
func (e *Engine) ServerName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.srvName
}

// ConnectedClients returns a snapshot of the mcpClientIds with a live
// session.
func (e *Engine) ConnectedClients() []string {
	return e.sessions.Keys()
}

// IsRunning reports whether Start completed and the transport still
// reports connected.
func (e *Engine) IsRunning() bool {
	return e.running.Load() && e.t != nil && e.t.IsConnected()
}

func (e *Engine) snapshotConfig() (mcp.ImplementationInfo, mcp.ServerCapabilities, string, map[string]any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serverInfo, e.capabilities, e.description, e.meta
}

func (e *Engine) log() *slog.Logger { return e.logger }
