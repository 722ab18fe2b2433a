package engine

import "strings"

const (
	serverPrefix       = "$mcp-server/"
	serverPresenceRoot = "$mcp-server/presence/"
	rpcPrefix          = "$mcp-rpc/"
	clientPresenceRoot = "$mcp-client/presence/"
)

// controlTopic is the server's initialize target: $mcp-server/{serverId}/{serverName}.
func controlTopic(serverID, serverName string) string {
	return serverPrefix + serverID + "/" + serverName
}

// presenceTopic is the server's retained presence topic:
// $mcp-server/presence/{serverId}/{serverName}.
func presenceTopic(serverID, serverName string) string {
	return serverPresenceRoot + serverID + "/" + serverName
}

// rpcTopic is the bidirectional per-client channel:
// $mcp-rpc/{mcpClientId}/{serverId}/{serverName}.
func rpcTopic(mcpClientID, serverID, serverName string) string {
	return rpcPrefix + mcpClientID + "/" + serverID + "/" + serverName
}

// clientPresenceTopic is the client's own retained presence topic:
// $mcp-client/presence/{mcpClientId}.
func clientPresenceTopic(mcpClientID string) string {
	return clientPresenceRoot + mcpClientID
}

// classifyTopic reports which channel a topic belongs to, or "" if it
// is outside the three reserved MCP prefixes and must be ignored.
func classifyTopic(topic string) string {
	switch {
	case strings.HasPrefix(topic, rpcPrefix):
		return "rpc"
	case strings.HasPrefix(topic, serverPrefix):
		// serverPresenceRoot is a sub-prefix of serverPrefix but the
		// server never subscribes to its own presence topic, so any
		// match here is the control topic.
		return "control"
	case strings.HasPrefix(topic, clientPresenceRoot):
		return "client-presence"
	default:
		return ""
	}
}

// rpcClientID extracts the mcpClientId segment between "$mcp-rpc/" and
// the next "/". Returns "" if the topic is malformed.
func rpcClientID(topic string) string {
	rest := strings.TrimPrefix(topic, rpcPrefix)
	if rest == topic {
		return ""
	}
	idx := strings.IndexByte(rest, '/')
	if idx < 0 {
		return rest
	}
	return rest[:idx]
}
