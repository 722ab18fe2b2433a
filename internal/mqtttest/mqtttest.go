// Package mqtttest starts an in-process MQTT 5.0 broker backed by
// github.com/mochi-mqtt/server/v2, so the engine's integration tests
// exercise the real wire protocol (retained messages, No-Local, user
// properties) instead of a hand-rolled fake transport.
package mqtttest

import (
	"fmt"
	"net"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
)

// Broker wraps a running mochi-mqtt server listening on a loopback TCP
// port, suitable for transport/mqttv5.Dial in tests.
type Broker struct {
	server *mqtt.Server
	Addr   string
}

// Start launches a broker listening on an ephemeral loopback port and
// returns once it is accepting connections.
func Start() (*Broker, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("mqtttest: reserve port: %w", err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		return nil, fmt.Errorf("mqtttest: release reserved port: %w", err)
	}

	server := mqtt.New(&mqtt.Options{InlineClient: true})
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("mqtttest: install allow-all auth hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{ID: "mqtttest", Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("mqtttest: add listener: %w", err)
	}

	go func() {
		_ = server.Serve()
	}()

	return &Broker{server: server, Addr: addr}, nil
}

// Close shuts down the broker and all its listeners.
func (b *Broker) Close() error {
	return b.server.Close()
}
