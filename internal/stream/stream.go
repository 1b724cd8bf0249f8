package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send after the stream was closed without a cause.
var ErrClosed = errors.New("stream closed")

// DefaultBuffer is the frame queue capacity used when none is given.
const DefaultBuffer = 10

// Stream is a bounded FIFO of frames owned by one registry entry. The
// registry side calls Send; the transport side drains Frames and calls
// Close once the connection is gone.
type Stream struct {
	frames chan Frame
	done   chan struct{}
	once   sync.Once

	mu  sync.Mutex
	err error
}

// New creates a Stream that queues up to buffer frames before Send blocks.
func New(buffer int) *Stream {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Stream{
		frames: make(chan Frame, buffer),
		done:   make(chan struct{}),
	}
}

// Send queues f. It blocks while the queue is full and fails once the
// stream is closed or ctx is done.
func (s *Stream) Send(ctx context.Context, f Frame) error {
	// Checked first so a closed stream never accepts into free buffer space.
	select {
	case <-s.done:
		return s.Err()
	default:
	}

	select {
	case s.frames <- f:
		return nil
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frames returns the receive side for the transport writer loop.
// The channel is never closed; select on Done as well.
func (s *Stream) Frames() <-chan Frame {
	return s.frames
}

// Done is closed when the stream is closed.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close marks the stream dead. The first call wins; cause may be nil.
func (s *Stream) Close(cause error) {
	s.once.Do(func() {
		if cause == nil {
			cause = ErrClosed
		}
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()
		close(s.done)
	})
}

// Err returns the close cause, or nil while the stream is open.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
