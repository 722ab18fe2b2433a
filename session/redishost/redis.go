// Package redishost provides a session.Table backed by Redis, letting a
// pool of engine replicas that share a serverId/serverName observe each
// other's connected clients. Keys carry a fixed TTL (default 1h) that is
// refreshed on every Put, so a record left behind by a process that
// exits without deleting it expires once the TTL elapses; the engine
// never reloads sessions from Redis after a restart.
package redishost

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/mcpmqtt/server-go/session"
)

// Config controls the Redis connection and key namespacing. Populate it
// with envdecode.Decode to source values from the environment.
type Config struct {
	RedisAddr string        `env:"MCP_MQTT_SESSIONS_REDIS_ADDR,default=localhost:6379"`
	KeyPrefix string        `env:"MCP_MQTT_SESSIONS_KEY_PREFIX,default=mcp-mqtt:sessions:"`
	TTL       time.Duration `env:"MCP_MQTT_SESSIONS_TTL,default=1h"`
}

// Table is a Redis-backed session.Table. Each session is stored as a
// JSON blob under keyPrefix+id with an expiring TTL; there is no
// separate index key, so Keys performs a SCAN over the prefix.
type Table struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New dials Redis per cfg and verifies connectivity with a PING.
func New(cfg Config) (*Table, error) {
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "mcp-mqtt:sessions:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	cl := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Table{client: cl, keyPrefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

// NewFromEnv builds a Table using envdecode to populate Config.
func NewFromEnv() (*Table, error) {
	var cfg Config
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

// Close closes the underlying Redis client.
func (t *Table) Close() error { return t.client.Close() }

func (t *Table) key(id string) string { return t.keyPrefix + id }

func (t *Table) Get(id string) (session.ClientSession, bool) {
	ctx := context.Background()
	b, err := t.client.Get(ctx, t.key(id)).Bytes()
	if err != nil {
		return session.ClientSession{}, false
	}
	var sess session.ClientSession
	if err := json.Unmarshal(b, &sess); err != nil {
		return session.ClientSession{}, false
	}
	return sess, true
}

func (t *Table) Put(sess session.ClientSession) {
	ctx := context.Background()
	b, err := json.Marshal(sess)
	if err != nil {
		return
	}
	_ = t.client.Set(ctx, t.key(sess.MCPClientID), b, t.ttl).Err()
}

func (t *Table) Delete(id string) {
	ctx := context.WithoutCancel(context.Background())
	_ = t.client.Del(ctx, t.key(id)).Err()
}

func (t *Table) Keys() []string {
	ctx := context.Background()
	pattern := t.keyPrefix + "*"
	keys := make([]string, 0)
	var cursor uint64
	for {
		batch, next, err := t.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return keys
		}
		for _, k := range batch {
			keys = append(keys, k[len(t.keyPrefix):])
		}
		if next == 0 {
			return keys
		}
		cursor = next
	}
}

var _ session.Table = (*Table)(nil)
