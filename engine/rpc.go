package engine

import (
	"context"
	"encoding/json"

	"github.com/mcpmqtt/server-go/internal/jsonrpc"
	"github.com/mcpmqtt/server-go/transport"
)

// publishRPCResult publishes a successful JSON-RPC response on the
// per-client RPC channel.
func (e *Engine) publishRPCResult(ctx context.Context, t transport.Transport, clientID, serverID, serverName string, id *jsonrpc.RequestID, result any) bool {
	resp, err := jsonrpc.NewResultResponse(id, result)
	if err != nil {
		e.log().ErrorContext(ctx, "failed to build result response", "error", err)
		return false
	}
	return e.publishRPCResponse(ctx, t, clientID, serverID, serverName, resp)
}

func (e *Engine) publishRPCResponse(ctx context.Context, t transport.Transport, clientID, serverID, serverName string, resp *jsonrpc.Response) bool {
	payload, err := json.Marshal(resp)
	if err != nil {
		e.log().ErrorContext(ctx, "failed to marshal response", "error", err)
		return false
	}
	return t.Publish(ctx, rpcTopic(clientID, serverID, serverName), payload, 1, false, e.serverUserProperties())
}
