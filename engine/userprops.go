package engine

import "github.com/mcpmqtt/server-go/transport"

const (
	userPropComponentType = "MCP-COMPONENT-TYPE"
	userPropMQTTClientID  = "MCP-MQTT-CLIENT-ID"
	userPropAuth          = "MCP-MQTT-AUTH"

	componentTypeServer = "mcp-server"
)

// serverUserProperties returns the user properties every
// server-originated publish must carry.
func (e *Engine) serverUserProperties() transport.UserProperties {
	return transport.UserProperties{
		{Key: userPropComponentType, Value: componentTypeServer},
		{Key: userPropMQTTClientID, Value: e.serverID},
	}
}
