package toolregistry

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcpmqtt/server-go/mcp"
)

func TestRegisterRejectsCollision(t *testing.T) {
	r := New()
	tool := mcp.Tool{Name: "echo"}
	h := func(args json.RawMessage) (*mcp.CallToolResult, error) {
		return mcp.NewTextResult("ok"), nil
	}

	if !r.Register(tool, h) {
		t.Fatal("expected first registration to succeed")
	}
	if r.Register(tool, h) {
		t.Fatal("expected duplicate registration to be rejected")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := New()
	r.Unregister("never-registered")

	tool := mcp.Tool{Name: "echo"}
	r.Register(tool, func(args json.RawMessage) (*mcp.CallToolResult, error) {
		return mcp.NewTextResult("ok"), nil
	})
	r.Unregister("echo")
	r.Unregister("echo")

	if r.Has("echo") {
		t.Fatal("expected echo to be gone after Unregister")
	}
}

func TestListSnapshot(t *testing.T) {
	r := New()
	r.Register(mcp.Tool{Name: "a"}, func(args json.RawMessage) (*mcp.CallToolResult, error) { return mcp.NewTextResult("a"), nil })
	r.Register(mcp.Tool{Name: "b"}, func(args json.RawMessage) (*mcp.CallToolResult, error) { return mcp.NewTextResult("b"), nil })

	names := map[string]bool{}
	for _, tool := range r.List() {
		names[tool.Name] = true
	}
	if len(names) != 2 || !names["a"] || !names["b"] {
		t.Fatalf("unexpected snapshot: %v", names)
	}
}

func TestCallMissingToolReturnsErrorResult(t *testing.T) {
	r := New()
	res := r.Call("nope", nil)
	if !res.IsError {
		t.Fatal("expected isError result for missing tool")
	}
	if len(res.Content) != 1 || res.Content[0].Text != "Tool not found: nope" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCallHandlerErrorBecomesErrorResult(t *testing.T) {
	r := New()
	r.Register(mcp.Tool{Name: "boom"}, func(args json.RawMessage) (*mcp.CallToolResult, error) {
		return nil, errors.New("kaboom")
	})

	res := r.Call("boom", nil)
	if !res.IsError {
		t.Fatal("expected isError result")
	}
	if res.Content[0].Text != "Tool execution error: kaboom" {
		t.Fatalf("unexpected message: %q", res.Content[0].Text)
	}
}

func TestCallHandlerPanicIsRecovered(t *testing.T) {
	r := New()
	r.Register(mcp.Tool{Name: "panics"}, func(args json.RawMessage) (*mcp.CallToolResult, error) {
		panic("handler exploded")
	})

	res := r.Call("panics", nil)
	if !res.IsError {
		t.Fatal("expected isError result after panic recovery")
	}
	if res.Content[0].Text != "Tool execution error: handler exploded" {
		t.Fatalf("unexpected message: %q", res.Content[0].Text)
	}
}

func TestLookupEnablesConcurrentInvocation(t *testing.T) {
	r := New()
	r.Register(mcp.Tool{Name: "echo"}, func(args json.RawMessage) (*mcp.CallToolResult, error) {
		return mcp.NewTextResult(string(args)), nil
	})

	h, ok := r.Lookup("echo")
	if !ok {
		t.Fatal("expected lookup to find handler")
	}
	res := Invoke(h, json.RawMessage(`"hi"`))
	if res.IsError || res.Content[0].Text != `"hi"` {
		t.Fatalf("unexpected result: %+v", res)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Fatal("expected lookup of missing tool to fail")
	}
}
