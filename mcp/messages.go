package mcp

import "encoding/json"

// Method is an MCP method identifier carried in a JSON-RPC envelope.
type Method string

// Method and notification names recognized by this server. Only the
// tools feature group is implemented; see mcp/doc.go for scope.
const (
	InitializeMethod               Method = "initialize"
	InitializedNotificationMethod  Method = "notifications/initialized"
	DisconnectedNotificationMethod Method = "notifications/disconnected"

	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"

	ServerOnlineNotificationMethod Method = "notifications/server/online"

	PingMethod Method = "ping"
)

// InitializeRequest is the params payload of an initialize request.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      ImplementationInfo `json:"clientInfo"`
	// MCPClientID is accepted as a fallback identity source when the
	// transport cannot convey the MCP-MQTT-CLIENT-ID user property.
	MCPClientID string `json:"mcpClientId,omitempty"`
	// AuthToken is accepted as a fallback bearer token source when the
	// transport cannot convey the MCP-MQTT-AUTH user property. Only
	// consulted when an Authenticator is configured.
	AuthToken string `json:"authToken,omitempty"`
}

// InitializeResult is the result payload of a successful initialize.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
}

// ListToolsResult is the result payload of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the params payload of tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// ServerOnlineParams is the params payload of the retained
// notifications/server/online presence message.
type ServerOnlineParams struct {
	Description string         `json:"description"`
	Meta        map[string]any `json:"meta,omitempty"`
}
