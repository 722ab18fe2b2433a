// Package memory provides the default in-process session.Table backed
// by a mutex-guarded map. It is the engine's default storage and is
// sufficient for a single server instance; session.redishost offers a
// shared alternative for horizontally scaled deployments.
package memory

import (
	"sync"

	"github.com/mcpmqtt/server-go/session"
)

// Table is a sync.RWMutex-guarded map implementation of session.Table.
type Table struct {
	mu       sync.RWMutex
	sessions map[string]session.ClientSession
}

// New returns an empty Table ready for use.
func New() *Table {
	return &Table{sessions: make(map[string]session.ClientSession)}
}

func (t *Table) Get(id string) (session.ClientSession, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	return s, ok
}

func (t *Table) Put(sess session.ClientSession) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[sess.MCPClientID] = sess
}

func (t *Table) Delete(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

func (t *Table) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.sessions))
	for k := range t.sessions {
		keys = append(keys, k)
	}
	return keys
}

var _ session.Table = (*Table)(nil)
