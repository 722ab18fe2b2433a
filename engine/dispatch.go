package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mcpmqtt/server-go/auth"
	"github.com/mcpmqtt/server-go/internal/jsonrpc"
	"github.com/mcpmqtt/server-go/internal/logctx"
	"github.com/mcpmqtt/server-go/mcp"
	"github.com/mcpmqtt/server-go/session"
	"github.com/mcpmqtt/server-go/toolregistry"
	"github.com/mcpmqtt/server-go/transport"
)

// handleInboundMessage implements spec.md §4.5.5. It is the single sink
// installed on the transport at Start.
func (e *Engine) handleInboundMessage(ctx context.Context, msg transport.InboundMessage) {
	ctx = logctx.WithMessageData(ctx, &logctx.MessageData{
		Topic:    msg.Topic,
		QoS:      msg.QoS,
		Retained: msg.Retained,
	})
	switch classifyTopic(msg.Topic) {
	case "rpc":
		e.handleRPCMessage(ctx, msg)
	case "control":
		e.handleControlMessage(ctx, msg)
	case "client-presence":
		e.handleClientPresenceMessage(ctx, msg)
	default:
		// Outside the three reserved prefixes: not MCP traffic, ignore.
	}
}

func clientIDFromUserProps(props transport.UserProperties) string {
	v, _ := props.Get(userPropMQTTClientID)
	return v
}

// handleControlMessage implements spec.md §4.5.6. Like handleRPCMessage,
// it parses through jsonrpc.AnyMessage so a message whose "jsonrpc"
// field isn't exactly "2.0" fails UnmarshalJSON and is dropped as a
// parse failure per spec.md §4.2, instead of being silently accepted.
func (e *Engine) handleControlMessage(ctx context.Context, msg transport.InboundMessage) {
	var any jsonrpc.AnyMessage
	if err := json.Unmarshal(msg.Payload, &any); err != nil {
		return
	}
	req := any.AsRequest()
	if req == nil || req.Method != string(mcp.InitializeMethod) {
		return
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		ID:     req.ID.String(),
		Type:   "request",
	})

	e.mu.Lock()
	serverID, serverName := e.serverID, e.srvName
	t := e.t
	e.mu.Unlock()

	// The MCP-MQTT-CLIENT-ID user property is the reply channel's real
	// source: it is independent of whether req.Params parses, so it
	// must be read before params decoding can fail the request. Only
	// when it and the params-derived fallback are both empty is there
	// truly no channel to reply on, which is the one case spec.md §7
	// category 2 permits a silent drop for.
	clientID := clientIDFromUserProps(msg.Properties)

	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			if clientID == "" {
				return
			}
			e.publishRPCResponse(ctx, t, clientID, serverID, serverName,
				jsonrpc.NewInvalidRequestResponse(req.ID, fmt.Sprintf("invalid initialize params: %v", err)))
			return
		}
	}

	if clientID == "" {
		clientID = params.MCPClientID
	}
	if clientID == "" {
		// No response channel exists without a known client id.
		return
	}

	var principal any
	if e.authenticator != nil {
		token, _ := msg.Properties.Get(userPropAuth)
		if token == "" {
			token = params.AuthToken
		}
		ui, err := e.authenticator.CheckAuthentication(ctx, token)
		if err != nil {
			e.log().WarnContext(ctx, "initialize rejected by authenticator", "mcp_client_id", clientID, "error", err)
			e.publishRPCResponse(ctx, t, clientID, serverID, serverName,
				jsonrpc.NewErrorResponse(req.ID, auth.RejectionCode, auth.RejectionMessage(err), nil))
			return
		}
		principal = ui
	}

	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = mcp.ProtocolVersion
	}

	var capsRaw json.RawMessage
	if params.Capabilities != nil {
		if b, err := json.Marshal(params.Capabilities); err == nil {
			capsRaw = b
		}
	}

	// Subscriptions must complete before the response publish so that
	// any early client publishes are captured.
	t.Subscribe(ctx, rpcTopic(clientID, serverID, serverName), 1, true)
	t.Subscribe(ctx, clientPresenceTopic(clientID), 1, false)

	e.sessions.Put(session.ClientSession{
		MCPClientID:     clientID,
		ProtocolVersion: protocolVersion,
		ClientInfo:      session.ClientInfo(params.ClientInfo),
		Capabilities:    capsRaw,
		State:           session.StateInitializing,
		Principal:       principal,
	})

	serverInfo, caps, _, _ := e.snapshotConfig()
	result := mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      serverInfo,
	}
	e.publishRPCResult(ctx, t, clientID, serverID, serverName, req.ID, result)
}

// handleRPCMessage implements spec.md §4.5.7.
func (e *Engine) handleRPCMessage(ctx context.Context, msg transport.InboundMessage) {
	clientID := rpcClientID(msg.Topic)
	if clientID == "" || len(msg.Payload) == 0 {
		return
	}

	var any jsonrpc.AnyMessage
	if err := json.Unmarshal(msg.Payload, &any); err != nil {
		return
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: any.Method,
		ID:     any.ID.String(),
		Type:   any.Type(),
	})
	if sess, ok := e.sessions.Get(clientID); ok {
		ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
			MCPClientID:     sess.MCPClientID,
			ProtocolVersion: sess.ProtocolVersion,
			State:           sess.State,
		})
	}

	e.mu.Lock()
	serverID, serverName := e.serverID, e.srvName
	t := e.t
	e.mu.Unlock()

	switch any.Type() {
	case "notification":
		e.handleRPCNotification(ctx, clientID, any.Method)
	default:
		req := any.AsRequest()
		if req == nil {
			return
		}
		e.handleRPCRequest(ctx, t, clientID, serverID, serverName, req)
	}
}

func (e *Engine) handleRPCNotification(ctx context.Context, clientID, method string) {
	switch mcp.Method(method) {
	case mcp.InitializedNotificationMethod:
		sess, ok := e.sessions.Get(clientID)
		if !ok {
			return
		}
		if sess.State == session.StateInitializing {
			sess.State = session.StateInitialized
			e.sessions.Put(sess)
			e.log().InfoContext(ctx, "session initialized", "mcp_client_id", clientID)
			e.fireConnected(clientID)
		}
	case mcp.DisconnectedNotificationMethod:
		e.destroySession(ctx, clientID)
	default:
		// Other notifications are accepted and ignored.
	}
}

func (e *Engine) handleRPCRequest(ctx context.Context, t transport.Transport, clientID, serverID, serverName string, req *jsonrpc.Request) {
	switch mcp.Method(req.Method) {
	case mcp.PingMethod:
		e.publishRPCResult(ctx, t, clientID, serverID, serverName, req.ID, map[string]any{})

	case mcp.ToolsListMethod:
		e.publishRPCResult(ctx, t, clientID, serverID, serverName, req.ID, mcp.ListToolsResult{Tools: e.registry.List()})

	case mcp.ToolsCallMethod:
		var params mcp.CallToolParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &params); err != nil {
				e.publishRPCResponse(ctx, t, clientID, serverID, serverName, jsonrpc.NewInvalidParamsResponse(req.ID, "invalid params"))
				return
			}
		}
		if strings.TrimSpace(params.Name) == "" {
			e.publishRPCResponse(ctx, t, clientID, serverID, serverName, jsonrpc.NewInvalidParamsResponse(req.ID, "missing required param: name"))
			return
		}
		args := params.Arguments
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		toolCtx := logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})
		e.log().DebugContext(toolCtx, "invoking tool")
		result := e.callTool(params.Name, args)
		e.publishRPCResult(ctx, t, clientID, serverID, serverName, req.ID, result)

	default:
		e.log().WarnContext(ctx, "unknown method", "mcp_client_id", clientID, "method", req.Method)
		e.publishRPCResponse(ctx, t, clientID, serverID, serverName, jsonrpc.NewMethodNotFoundResponse(req.ID, req.Method))
	}
}

func (e *Engine) callTool(name string, args json.RawMessage) *mcp.CallToolResult {
	if e.concurrentToolCalls {
		h, ok := e.registry.Lookup(name)
		if !ok {
			return mcp.NewErrorResult(fmt.Sprintf("Tool not found: %s", name))
		}
		return toolregistry.Invoke(h, args)
	}
	return e.registry.Call(name, args)
}

// handleClientPresenceMessage implements spec.md §4.5.8.
func (e *Engine) handleClientPresenceMessage(ctx context.Context, msg transport.InboundMessage) {
	clientID := strings.TrimPrefix(msg.Topic, clientPresenceRoot)
	if clientID == msg.Topic || clientID == "" {
		return
	}
	if len(msg.Payload) == 0 {
		// Informational only: client cleared its retained presence.
		return
	}

	var any jsonrpc.AnyMessage
	if err := json.Unmarshal(msg.Payload, &any); err != nil {
		return
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: any.Method,
		ID:     any.ID.String(),
		Type:   any.Type(),
	})
	if mcp.Method(any.Method) == mcp.DisconnectedNotificationMethod {
		e.destroySession(ctx, clientID)
	}
}

// destroySession implements spec.md §4.5.9.
func (e *Engine) destroySession(ctx context.Context, clientID string) {
	e.sessions.Delete(clientID)
	e.log().InfoContext(ctx, "session destroyed", "mcp_client_id", clientID)

	e.mu.Lock()
	serverID, serverName := e.serverID, e.srvName
	t := e.t
	e.mu.Unlock()

	if t != nil {
		t.Unsubscribe(ctx, rpcTopic(clientID, serverID, serverName))
		t.Unsubscribe(ctx, clientPresenceTopic(clientID))
	}

	e.fireDisconnected(clientID)
}

func (e *Engine) fireConnected(clientID string) {
	e.mu.Lock()
	fn := e.onConnected
	e.mu.Unlock()
	if fn != nil {
		fn(clientID)
	}
}

func (e *Engine) fireDisconnected(clientID string) {
	e.mu.Lock()
	fn := e.onDisconnected
	e.mu.Unlock()
	if fn != nil {
		fn(clientID)
	}
}
