package toolregistry

import (
	"encoding/json"
	"testing"

	"github.com/mcpmqtt/server-go/mcp"
)

type addArgs struct {
	A float64 `json:"a" jsonschema:"description=first operand"`
	B float64 `json:"b" jsonschema:"description=second operand"`
}

func TestNewTypedReflectsInputSchema(t *testing.T) {
	tool, handler := NewTyped[addArgs]("add", func(args addArgs) (*mcp.CallToolResult, error) {
		return mcp.NewTextResult("ok"), nil
	}, WithDescription("adds two numbers"))

	if tool.Name != "add" || tool.Description != "adds two numbers" {
		t.Fatalf("unexpected tool descriptor: %+v", tool)
	}
	if tool.InputSchema.Type != "object" {
		t.Fatalf("expected object schema, got %q", tool.InputSchema.Type)
	}
	if _, ok := tool.InputSchema.Properties["a"]; !ok {
		t.Fatalf("expected property 'a' in reflected schema: %+v", tool.InputSchema.Properties)
	}
	if _, ok := tool.InputSchema.Properties["b"]; !ok {
		t.Fatalf("expected property 'b' in reflected schema: %+v", tool.InputSchema.Properties)
	}

	res, err := handler(json.RawMessage(`{"a":1,"b":2}`))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestNewTypedInvalidArgumentsYieldErrorResult(t *testing.T) {
	_, handler := NewTyped[addArgs]("add", func(args addArgs) (*mcp.CallToolResult, error) {
		return mcp.NewTextResult("ok"), nil
	})

	res, err := handler(json.RawMessage(`{"a": "not a number"}`))
	if err != nil {
		t.Fatalf("handler should not return an error for bad input, got %v", err)
	}
	if !res.IsError {
		t.Fatal("expected isError result for malformed arguments")
	}
}
