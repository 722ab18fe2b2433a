// Package logctx wires request-scoped fields into log/slog records via
// a context-aware slog.Handler, so every log line emitted while
// handling a message carries its session, rpc and tool context without
// threading loggers through every function signature.
package logctx

import (
	"context"
	"log/slog"

	"github.com/mcpmqtt/server-go/session"
)

// Handler wraps an underlying slog.Handler and enriches each record with
// whatever scoped data is present on the record's context.
type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if md, ok := ctx.Value(messageDataKey{}).(*MessageData); ok {
		r.AddAttrs(slog.Group("msg",
			slog.String("topic", md.Topic),
			slog.Int("qos", md.QoS),
			slog.Bool("retained", md.Retained),
		))
	}

	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("sess",
			slog.String("mcp_client_id", sd.MCPClientID),
			slog.String("protocol_version", sd.ProtocolVersion),
			slog.String("state", string(sd.State)),
		))
	}

	if msg, ok := ctx.Value(rpcMsgKey{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("type", msg.Type),
		))
	}

	if td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
		))
	}

	return h.Handler.Handle(ctx, r)
}

type rpcMsgKey struct{}

// RPCMessage describes the JSON-RPC envelope currently being processed.
type RPCMessage struct {
	Method string
	ID     string
	Type   string // "request", "notification", or "response"
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsgKey{}, msg)
}

type messageDataKey struct{}

// MessageData describes the inbound transport delivery being handled.
type MessageData struct {
	Topic    string
	QoS      int
	Retained bool
}

func WithMessageData(ctx context.Context, data *MessageData) context.Context {
	return context.WithValue(ctx, messageDataKey{}, data)
}

type sessionDataKey struct{}

// SessionData mirrors the subset of a session.ClientSession worth
// surfacing on every log line scoped to that client.
type SessionData struct {
	MCPClientID     string
	ProtocolVersion string
	State           session.State
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}

type toolCallDataKey struct{}

// ToolCallData scopes log lines emitted while a tool handler runs.
type ToolCallData struct {
	ToolName string
}

func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallDataKey{}, data)
}
