package ws

import "github.com/Strob0t/ssecast/internal/stream"

// Message is the JSON envelope for every frame written to a WebSocket
// client. Keepalives are not sent as messages; they become protocol pings.
type Message struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// envelope converts a payload frame to its wire message.
func envelope(f stream.Frame) Message {
	return Message{Type: f.Kind.String(), Data: f.Data}
}
