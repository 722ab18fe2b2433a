// Package session defines the per-client session record and the
// pluggable Table storage contract that backs it. A session exists for
// the lifetime of one MCP client's relationship with the engine: from
// the initialize request that creates it to whichever of the
// destruction triggers fires first.
package session

import "encoding/json"

// State is the position of a ClientSession in the initialize →
// initialized → active → disconnected lifecycle. The table itself only
// distinguishes "present" from "absent"; State is carried inside the
// record for observability. The engine sets StateInitializing on
// initialize and StateInitialized on notifications/initialized; it never
// assigns StateActive or StateDisconnected, and a destroyed session is
// removed from the table rather than marked.
type State string

const (
	StateInitializing State = "initializing"
	StateInitialized  State = "initialized"
	StateActive       State = "active"
	StateDisconnected State = "disconnected"
)

// ClientInfo mirrors the identifying fields a client sends during
// initialize.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientSession is the record the engine keeps for one mcpClientId. It is
// immutable from the perspective of Table implementations: the engine
// reads and replaces whole records rather than mutating fields in place,
// so Table implementations never need field-level locking.
type ClientSession struct {
	MCPClientID     string
	ProtocolVersion string
	ClientInfo      ClientInfo
	Capabilities    json.RawMessage
	State           State

	// Principal carries the authenticated identity established during
	// initialize when an Authenticator is configured: the auth.UserInfo
	// returned by CheckAuthentication. It is nil when authentication is
	// not in use. Nothing in the tools/* dispatch path reads this field;
	// it is only reachable through the session.Table. Tables that store
	// records as JSON (session/redishost) do not read it back as the
	// original type.
	Principal any
}

// Initialized reports whether notifications/initialized has been
// observed for this session.
func (s ClientSession) Initialized() bool {
	return s.State == StateInitialized || s.State == StateActive
}

// Table is a thread-safe mapping from mcpClientId to ClientSession. The
// engine is the only writer; Keys is exposed so embedders can implement
// connectedClients() without reaching into engine internals.
type Table interface {
	// Get returns the session for id and true, or the zero value and
	// false if absent.
	Get(id string) (ClientSession, bool)

	// Put inserts or replaces the session keyed by its MCPClientID.
	Put(sess ClientSession)

	// Delete removes id. It is a no-op if id is absent.
	Delete(id string)

	// Keys returns a snapshot of the currently present client ids.
	// Ordering is not specified.
	Keys() []string
}
