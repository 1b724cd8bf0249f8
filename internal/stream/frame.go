// Package stream provides the per-client delivery handle: a bounded FIFO of
// outgoing frames that a transport drains onto an open connection.
package stream

// Kind distinguishes the three units a client can receive.
type Kind int

const (
	// KindConnected is the acknowledgement sent once on subscribe.
	KindConnected Kind = iota
	// KindMessage carries a broadcast payload.
	KindMessage
	// KindKeepalive is a liveness check. Transports must not surface it to
	// the end consumer.
	KindKeepalive
)

// String returns the wire name used by the WebSocket envelope.
func (k Kind) String() string {
	switch k {
	case KindConnected:
		return "connected"
	case KindMessage:
		return "message"
	case KindKeepalive:
		return "keepalive"
	default:
		return "unknown"
	}
}

// Frame is one outgoing unit.
type Frame struct {
	Kind Kind
	Data string
}

// Connected returns the initial acknowledgement frame.
func Connected() Frame {
	return Frame{Kind: KindConnected, Data: "connected"}
}

// Message returns a payload frame labelled with the recipient's id.
func Message(clientID, msg string) Frame {
	return Frame{Kind: KindMessage, Data: clientID + ": " + msg}
}

// Keepalive returns a keepalive comment frame naming its target.
func Keepalive(clientID string) Frame {
	return Frame{Kind: KindKeepalive, Data: "ping from: " + clientID}
}
