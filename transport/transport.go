// Package transport defines the abstract duplex MQTT 5.0 channel the
// engine depends on. Connection management (dial, reconnect, TLS,
// broker authentication, keepalive) belongs to a concrete
// implementation such as transport/mqttv5; this package only specifies
// the capability set the engine needs and the wire-level value types
// every implementation shares.
package transport

import "context"

// UserProperties is an ordered mapping of string keys to string values
// carried alongside an MQTT 5 publish. Implementations must preserve
// duplicate keys in the order supplied; callers in this module never
// rely on duplicates, but the type permits them since the protocol
// does.
type UserProperties []UserProperty

// UserProperty is one key/value pair of an MQTT 5 user property list.
type UserProperty struct {
	Key   string
	Value string
}

// Get returns the first value for key, and whether it was present.
func (p UserProperties) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Add appends a key/value pair and returns the resulting list.
func (p UserProperties) Add(key, value string) UserProperties {
	return append(p, UserProperty{Key: key, Value: value})
}

// InboundMessage is a single message delivered by the broker to the
// engine's message handler, including retained replays seen right after
// subscribe.
type InboundMessage struct {
	Topic      string
	Payload    []byte
	QoS        int
	Retained   bool
	Properties UserProperties
}

// MessageHandler is invoked once per InboundMessage. The Transport
// makes no guarantee that deliveries are serialized across goroutines.
type MessageHandler func(ctx context.Context, msg InboundMessage)

// ConnectionLostHandler is invoked when the underlying connection drops
// unexpectedly (not on a clean Disconnect from the embedder).
type ConnectionLostHandler func(err error)

// Transport is the capability set the Protocol Engine depends on. It is
// not required to serialize inbound deliveries; the engine must behave
// correctly under concurrent delivery.
type Transport interface {
	// IsConnected is a snapshot query; it is not authoritative for
	// ordering guarantees relative to other operations.
	IsConnected() bool

	// Subscribe subscribes to topic at qos. When noLocal is true, the
	// broker must not echo back the subscriber's own publishes to this
	// topic (MQTT 5 No-Local subscription option). Returns false on
	// failure.
	Subscribe(ctx context.Context, topic string, qos int, noLocal bool) bool

	// Unsubscribe removes a prior subscription. Returns false on
	// failure.
	Unsubscribe(ctx context.Context, topic string) bool

	// Publish sends payload to topic. retained requests the broker
	// retain the message for future subscribers (empty payload clears
	// retention). userProperties are attached as MQTT 5 user
	// properties and must be preserved by the receiving side.
	Publish(ctx context.Context, topic string, payload []byte, qos int, retained bool, userProperties UserProperties) bool

	// ClientID returns the MQTT client identifier in use.
	ClientID() string

	// SetMessageHandler registers the single sink for inbound
	// messages, replacing any previously registered handler.
	SetMessageHandler(fn MessageHandler)

	// SetConnectionLostHandler registers the callback fired when the
	// connection drops unexpectedly.
	SetConnectionLostHandler(fn ConnectionLostHandler)
}
