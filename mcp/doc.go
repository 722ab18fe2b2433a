// Package mcp contains the wire-level data types and JSON-RPC method
// names for the tools-only subset of the Model Context Protocol carried
// over MQTT by this module. It mirrors the wire representation used by
// the engine and transport packages while staying free of any
// transport-specific framing.
//
// # Scope
//
// Only the "tools" feature group is represented: Tool, ToolInputSchema,
// CallToolResult and the initialize/tools/* messages. Resources,
// prompts, sampling and elicitation are out of scope for this server
// (see the module's Non-goals) and have no types here.
//
// # Method names
//
// JSON-RPC method and notification names are enumerated as Method
// constants (e.g. ToolsListMethod) so the engine's dispatch table has a
// single point of truth.
package mcp
