package engine

import (
	"context"
	"encoding/json"

	"github.com/mcpmqtt/server-go/mcp"
	"github.com/mcpmqtt/server-go/transport"
)

// Start implements spec.md §4.5.3. It fails if the engine is already
// running or the transport does not report connected.
func (e *Engine) Start(t transport.Transport, serverID, serverName string) bool {
	ctx := context.Background()
	if e.running.Load() {
		e.log().WarnContext(ctx, "start called while already running")
		return false
	}
	if t == nil || !t.IsConnected() {
		e.log().WarnContext(ctx, "start failed: transport not connected")
		return false
	}

	e.mu.Lock()
	e.t = t
	e.serverID = serverID
	e.srvName = serverName
	e.mu.Unlock()

	t.SetMessageHandler(e.handleInboundMessage)
	t.SetConnectionLostHandler(func(err error) {
		e.log().WarnContext(context.Background(), "transport connection lost", "error", err)
	})

	if !t.Subscribe(ctx, controlTopic(serverID, serverName), 1, false) {
		e.log().ErrorContext(ctx, "start failed: could not subscribe to control topic")
		return false
	}

	if !e.publishPresence(ctx) {
		e.log().ErrorContext(ctx, "start failed: could not publish presence")
		return false
	}

	e.running.Store(true)
	return true
}

// Stop implements spec.md §4.5.4. It is idempotent.
func (e *Engine) Stop() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}

	ctx := context.Background()
	e.mu.Lock()
	serverID, serverName := e.serverID, e.srvName
	t := e.t
	e.mu.Unlock()

	for _, clientID := range e.sessions.Keys() {
		e.publishDisconnectedNotification(ctx, clientID, serverID, serverName)
	}

	e.clearPresence(ctx)

	t.Unsubscribe(ctx, controlTopic(serverID, serverName))
	for _, clientID := range e.sessions.Keys() {
		t.Unsubscribe(ctx, rpcTopic(clientID, serverID, serverName))
		t.Unsubscribe(ctx, clientPresenceTopic(clientID))
		e.sessions.Delete(clientID)
	}

	// The Engine borrows the transport's message-handler slot for the
	// duration of Start; Stop must give it back (spec.md:66) so a
	// message delivered after Stop returns never reaches a handler
	// closing over a nilled e.t.
	t.SetMessageHandler(nil)

	e.mu.Lock()
	e.t = nil
	e.mu.Unlock()
}

func (e *Engine) publishPresence(ctx context.Context) bool {
	e.mu.Lock()
	serverID, serverName, description, meta := e.serverID, e.srvName, e.description, e.meta
	t := e.t
	e.mu.Unlock()

	params := mcp.ServerOnlineParams{Description: description, Meta: meta}
	notif := map[string]any{
		"jsonrpc": "2.0",
		"method":  string(mcp.ServerOnlineNotificationMethod),
		"params":  params,
	}
	payload, err := json.Marshal(notif)
	if err != nil {
		e.log().ErrorContext(ctx, "failed to marshal presence notification", "error", err)
		return false
	}
	return t.Publish(ctx, presenceTopic(serverID, serverName), payload, 1, true, e.serverUserProperties())
}

func (e *Engine) clearPresence(ctx context.Context) {
	e.mu.Lock()
	serverID, serverName := e.serverID, e.srvName
	t := e.t
	e.mu.Unlock()

	t.Publish(ctx, presenceTopic(serverID, serverName), nil, 1, true, e.serverUserProperties())
}

func (e *Engine) publishDisconnectedNotification(ctx context.Context, clientID, serverID, serverName string) {
	e.mu.Lock()
	t := e.t
	e.mu.Unlock()

	notif := map[string]any{
		"jsonrpc": "2.0",
		"method":  string(mcp.DisconnectedNotificationMethod),
	}
	payload, err := json.Marshal(notif)
	if err != nil {
		e.log().ErrorContext(ctx, "failed to marshal disconnected notification", "error", err)
		return
	}
	t.Publish(ctx, rpcTopic(clientID, serverID, serverName), payload, 1, false, e.serverUserProperties())
}
