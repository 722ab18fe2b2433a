package toolregistry

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/mcpmqtt/server-go/mcp"
)

// TypedOption configures NewTyped.
type TypedOption func(*typedConfig)

type typedConfig struct {
	description string
}

// WithDescription sets the description advertised in tools/list for a
// typed tool.
func WithDescription(desc string) TypedOption {
	return func(c *typedConfig) { c.description = desc }
}

// NewTyped reflects the Go struct A into an advertisement-only
// ToolInputSchema (via invopop/jsonschema) and wraps fn so that raw
// JSON arguments are decoded into A before the handler runs. Decode
// failures surface as an isError tool result, never a decode panic;
// this mirrors the teacher's typed-tool builder but never re-validates
// against the schema at call time, matching this server's contract
// that input schemas are advertisement only.
func NewTyped[A any](name string, fn func(args A) (*mcp.CallToolResult, error), opts ...TypedOption) (mcp.Tool, Handler) {
	cfg := typedConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tool := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: reflectInputSchema[A](),
	}

	handler := func(argsJSON json.RawMessage) (*mcp.CallToolResult, error) {
		var a A
		if len(argsJSON) > 0 {
			if err := json.Unmarshal(argsJSON, &a); err != nil {
				return mcp.NewErrorResult("invalid arguments: " + err.Error()), nil
			}
		}
		return fn(a)
	}

	return tool, handler
}

func reflectInputSchema[A any]() mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(A))
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toSchemaProperty(el.Value)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string(nil), s.Required...),
	}
}

func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}
