// Package sse implements the Server-Sent Events transport for client streams.
package sse

import (
	"io"
	"strings"

	"github.com/Strob0t/ssecast/internal/stream"
)

// WriteFrame encodes f in the text/event-stream format. Payload frames become
// data lines; keepalives become comment lines, which EventSource consumers
// never see.
func WriteFrame(w io.Writer, f stream.Frame) error {
	prefix := "data: "
	if f.Kind == stream.KindKeepalive {
		prefix = ": "
	}

	var b strings.Builder
	for _, line := range splitLines(f.Data) {
		b.WriteString(prefix)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

// splitLines splits on CRLF, CR and LF, which all end a line in SSE.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
