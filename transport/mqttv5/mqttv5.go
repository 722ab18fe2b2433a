// Package mqttv5 implements transport.Transport over a real MQTT 5.0
// broker connection using github.com/eclipse/paho.golang/paho, the Go
// ecosystem's client for exactly the wire features this module needs:
// retained messages, QoS 1, user properties, and the No-Local
// subscription option. Dial also configures the connection's Will
// message, since per spec.md §4.5.3 installing the LWT that clears
// presence on disconnect is the embedder's responsibility, not the
// engine's.
package mqttv5

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"

	"github.com/eclipse/paho.golang/paho"

	"github.com/mcpmqtt/server-go/transport"
)

// Will configures the MQTT 5 Last-Will-and-Testament published by the
// broker if this connection drops without a clean DISCONNECT. For this
// server, Will.Topic is conventionally the server's presence topic and
// Will.Payload is empty, so a dead server's presence clears itself.
type Will struct {
	Topic    string
	Payload  []byte
	QoS      int
	Retained bool
}

// Option configures Dial.
type Option func(*options)

type options struct {
	clientID   string
	keepAlive  uint16
	will       *Will
	username   string
	password   []byte
	tlsConfig  *tls.Config
	logger     *slog.Logger
	cleanStart bool
}

// WithClientID sets the MQTT client identifier. If unset, the broker
// assigns one.
func WithClientID(id string) Option {
	return func(o *options) { o.clientID = id }
}

// WithKeepAlive sets the MQTT keepalive interval in seconds.
func WithKeepAlive(seconds uint16) Option {
	return func(o *options) { o.keepAlive = seconds }
}

// WithWill installs the connection's Last-Will-and-Testament.
func WithWill(w Will) Option {
	return func(o *options) { o.will = &w }
}

// WithCredentials sets a username/password for broker authentication.
func WithCredentials(username string, password []byte) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithTLS dials over TLS using cfg. Omit to dial a plain TCP socket.
func WithTLS(cfg *tls.Config) Option {
	return func(o *options) { o.tlsConfig = cfg }
}

// WithLogger attaches a logger used for connection-lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCleanStart controls the MQTT 5 Clean Start flag. Defaults to true:
// this module persists no state across restarts, so resuming a broker
// session offers no benefit.
func WithCleanStart(clean bool) Option {
	return func(o *options) { o.cleanStart = clean }
}

// Client adapts a connected paho.Client to transport.Transport.
type Client struct {
	pc       *paho.Client
	clientID string
	logger   *slog.Logger

	handler         transport.MessageHandler
	connLostHandler transport.ConnectionLostHandler
}

// Dial opens a TCP (or TLS) connection to addr, performs the MQTT 5
// CONNECT handshake, and returns a Client ready to be handed to
// engine.Engine.Start. The returned Client's message handler is empty until
// SetMessageHandler is called; inbound messages that arrive before that
// point are dropped, matching the narrow contract transport.Transport
// specifies.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	cfg := options{
		keepAlive:  30,
		cleanStart: true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var conn net.Conn
	var err error
	if cfg.tlsConfig != nil {
		conn, err = tls.Dial("tcp", addr, cfg.tlsConfig)
	} else {
		conn, err = net.Dial("tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("mqttv5: dial %s: %w", addr, err)
	}

	c := &Client{clientID: cfg.clientID, logger: cfg.logger}

	pc := paho.NewClient(paho.ClientConfig{
		Conn:      conn,
		ClientID:  cfg.clientID,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			c.onPublishReceived,
		},
		OnClientError: func(err error) {
			c.logger.Error("mqtt client error", "error", err)
			if c.connLostHandler != nil {
				c.connLostHandler(err)
			}
		},
		OnServerDisconnect: func(d *paho.Disconnect) {
			err := fmt.Errorf("mqttv5: server disconnect: reason=%d", d.ReasonCode)
			c.logger.Warn("mqtt server disconnect", "reason_code", d.ReasonCode)
			if c.connLostHandler != nil {
				c.connLostHandler(err)
			}
		},
	})
	c.pc = pc

	connectPacket := &paho.Connect{
		KeepAlive:  cfg.keepAlive,
		CleanStart: cfg.cleanStart,
		ClientID:   cfg.clientID,
		Username:   cfg.username,
		Password:   cfg.password,
	}
	if cfg.username != "" {
		connectPacket.UsernameFlag = true
	}
	if len(cfg.password) > 0 {
		connectPacket.PasswordFlag = true
	}
	if cfg.will != nil {
		connectPacket.WillMessage = &paho.WillMessage{
			Topic:   cfg.will.Topic,
			Payload: cfg.will.Payload,
			QoS:     byte(cfg.will.QoS),
			Retain:  cfg.will.Retained,
		}
	}

	ca, err := pc.Connect(ctx, connectPacket)
	if err != nil {
		return nil, fmt.Errorf("mqttv5: connect: %w", err)
	}
	if ca.ReasonCode != 0 {
		return nil, fmt.Errorf("mqttv5: broker refused connect: reason=%d", ca.ReasonCode)
	}
	if cfg.clientID == "" && ca.Properties != nil {
		c.clientID = ca.Properties.AssignedClientID
	}

	return c, nil
}

func (c *Client) onPublishReceived(pr paho.PublishReceived) (bool, error) {
	if c.handler == nil {
		return true, nil
	}
	c.handler(context.Background(), transport.InboundMessage{
		Topic:      pr.Packet.Topic,
		Payload:    pr.Packet.Payload,
		QoS:        int(pr.Packet.QoS),
		Retained:   pr.Packet.Retain,
		Properties: fromPahoUserProperties(pr.Packet.Properties),
	})
	return true, nil
}

func fromPahoUserProperties(props *paho.PublishProperties) transport.UserProperties {
	if props == nil {
		return nil
	}
	out := make(transport.UserProperties, 0, len(props.User))
	for _, kv := range props.User {
		out = append(out, transport.UserProperty{Key: kv.Key, Value: kv.Value})
	}
	return out
}

func toPahoUserProperties(props transport.UserProperties) paho.UserProperties {
	if len(props) == 0 {
		return nil
	}
	out := make(paho.UserProperties, 0, len(props))
	for _, kv := range props {
		out = append(out, paho.UserProperty{Key: kv.Key, Value: kv.Value})
	}
	return out
}

func (c *Client) IsConnected() bool {
	return c.pc != nil && c.pc.Connected()
}

func (c *Client) Subscribe(ctx context.Context, topic string, qos int, noLocal bool) bool {
	_, err := c.pc.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{
			{Topic: topic, QoS: byte(qos), NoLocal: noLocal},
		},
	})
	if err != nil {
		c.logger.Error("mqtt subscribe failed", "topic", topic, "error", err)
		return false
	}
	return true
}

func (c *Client) Unsubscribe(ctx context.Context, topic string) bool {
	_, err := c.pc.Unsubscribe(ctx, &paho.Unsubscribe{Topics: []string{topic}})
	if err != nil {
		c.logger.Error("mqtt unsubscribe failed", "topic", topic, "error", err)
		return false
	}
	return true
}

func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos int, retained bool, userProperties transport.UserProperties) bool {
	_, err := c.pc.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     byte(qos),
		Retain:  retained,
		Payload: payload,
		Properties: &paho.PublishProperties{
			User: toPahoUserProperties(userProperties),
		},
	})
	if err != nil {
		c.logger.Error("mqtt publish failed", "topic", topic, "error", err)
		return false
	}
	return true
}

func (c *Client) ClientID() string { return c.clientID }

// handler is set by SetMessageHandler and read by onPublishReceived.
// It is intentionally a plain field rather than an atomic.Value: the
// contract (transport.Transport) never requires SetMessageHandler to be
// race-free against concurrent delivery, and the engine installs it
// once before any Subscribe call.
func (c *Client) SetMessageHandler(fn transport.MessageHandler) {
	c.handler = fn
}

func (c *Client) SetConnectionLostHandler(fn transport.ConnectionLostHandler) {
	c.connLostHandler = fn
}

var _ transport.Transport = (*Client)(nil)
