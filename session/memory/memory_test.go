package memory

import (
	"testing"

	"github.com/mcpmqtt/server-go/session"
	"github.com/mcpmqtt/server-go/session/sessiontest"
)

func TestTable(t *testing.T) {
	sessiontest.RunTableTests(t, func(t *testing.T) session.Table {
		return New()
	})
}
