// Package sessiontest provides a black-box test suite that exercises
// any session.Table implementation identically, so that session/memory
// and session/redishost are held to the same contract.
package sessiontest

import (
	"encoding/json"
	"testing"

	"github.com/mcpmqtt/server-go/session"
)

// TableFactory creates a fresh, empty Table for one subtest.
type TableFactory func(t *testing.T) session.Table

// RunTableTests runs the complete session.Table contract suite against
// the provided factory.
func RunTableTests(t *testing.T, factory TableFactory) {
	t.Run("GetMissingReturnsFalse", func(t *testing.T) {
		testGetMissingReturnsFalse(t, factory)
	})
	t.Run("PutThenGetRoundTrips", func(t *testing.T) {
		testPutThenGetRoundTrips(t, factory)
	})
	t.Run("PutOverwritesExisting", func(t *testing.T) {
		testPutOverwritesExisting(t, factory)
	})
	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		testDeleteIsIdempotent(t, factory)
	})
	t.Run("KeysReflectsMembership", func(t *testing.T) {
		testKeysReflectsMembership(t, factory)
	})
}

func testGetMissingReturnsFalse(t *testing.T, factory TableFactory) {
	tbl := factory(t)
	if _, ok := tbl.Get("nope"); ok {
		t.Fatal("expected Get of absent id to return false")
	}
}

func testPutThenGetRoundTrips(t *testing.T, factory TableFactory) {
	tbl := factory(t)

	sess := session.ClientSession{
		MCPClientID:     "client-1",
		ProtocolVersion: "2024-11-05",
		ClientInfo:      session.ClientInfo{Name: "demo", Version: "1.0.0"},
		Capabilities:    json.RawMessage(`{"roots":{}}`),
		State:           session.StateInitializing,
	}
	tbl.Put(sess)

	got, ok := tbl.Get("client-1")
	if !ok {
		t.Fatal("expected session to be present after Put")
	}
	if got.MCPClientID != sess.MCPClientID || got.ProtocolVersion != sess.ProtocolVersion {
		t.Fatalf("round-tripped session mismatch: got %+v, want %+v", got, sess)
	}
	if got.ClientInfo != sess.ClientInfo {
		t.Fatalf("client info mismatch: got %+v, want %+v", got.ClientInfo, sess.ClientInfo)
	}
}

func testPutOverwritesExisting(t *testing.T, factory TableFactory) {
	tbl := factory(t)

	tbl.Put(session.ClientSession{MCPClientID: "client-1", State: session.StateInitializing})
	tbl.Put(session.ClientSession{MCPClientID: "client-1", State: session.StateActive})

	got, ok := tbl.Get("client-1")
	if !ok {
		t.Fatal("expected session to still be present")
	}
	if got.State != session.StateActive {
		t.Fatalf("expected overwritten state %q, got %q", session.StateActive, got.State)
	}
}

func testDeleteIsIdempotent(t *testing.T, factory TableFactory) {
	tbl := factory(t)

	tbl.Delete("never-existed")

	tbl.Put(session.ClientSession{MCPClientID: "client-1"})
	tbl.Delete("client-1")
	tbl.Delete("client-1")

	if _, ok := tbl.Get("client-1"); ok {
		t.Fatal("expected session to be gone after Delete")
	}
}

func testKeysReflectsMembership(t *testing.T, factory TableFactory) {
	tbl := factory(t)

	tbl.Put(session.ClientSession{MCPClientID: "a"})
	tbl.Put(session.ClientSession{MCPClientID: "b"})
	tbl.Put(session.ClientSession{MCPClientID: "c"})
	tbl.Delete("b")

	keys := tbl.Keys()
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[k] = true
	}
	if len(seen) != 2 || !seen["a"] || !seen["c"] || seen["b"] {
		t.Fatalf("unexpected key set: %v", keys)
	}
}
