package redishost

import (
	"testing"

	"github.com/mcpmqtt/server-go/session"
	"github.com/mcpmqtt/server-go/session/sessiontest"
)

func TestTable(t *testing.T) {
	h, err := NewFromEnv()
	if err != nil {
		t.Skipf("skipping redis session table tests: %v", err)
		return
	}
	_ = h.Close()

	sessiontest.RunTableTests(t, func(t *testing.T) session.Table {
		tbl, err := NewFromEnv()
		if err != nil {
			t.Fatalf("NewFromEnv: %v", err)
		}
		t.Cleanup(func() { _ = tbl.Close() })
		return tbl
	})
}
