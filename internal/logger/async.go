package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping log output.
type Closer interface {
	Close()
}

// AsyncHandler wraps an slog.Handler with a buffered channel and worker pool
// so request and fan-out goroutines never block on log I/O.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// asyncCore is shared by every handler derived via WithAttrs/WithGroup.
type asyncCore struct {
	mu      sync.RWMutex // guards closed and the channel close
	closed  bool
	ch      chan asyncRecord
	wg      sync.WaitGroup
	dropped atomic.Int64
}

// asyncRecord keeps the derived handler with the record so attributes and
// groups survive the trip through the shared channel.
type asyncRecord struct {
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	if workers < 1 {
		workers = 1
	}
	core := &asyncCore{ch: make(chan asyncRecord, chanSize)}
	for range workers {
		core.wg.Add(1)
		go core.drain()
	}
	return &AsyncHandler{inner: inner, core: core}
}

func (c *asyncCore) drain() {
	defer c.wg.Done()
	for r := range c.ch {
		_ = r.h.Handle(context.Background(), r.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the channel is full or closed.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	c := h.core
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.dropped.Add(1)
		return nil
	}
	select {
	case c.ch <- asyncRecord{h: h.inner, rec: rec.Clone()}:
	default:
		c.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a new AsyncHandler sharing the same channel but wrapping a new inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

// WithGroup returns a new AsyncHandler sharing the same channel but wrapping a new inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close stops accepting records and waits for the workers to drain.
// Safe to call more than once.
func (h *AsyncHandler) Close() {
	c := h.core
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.ch)
	c.mu.Unlock()
	c.wg.Wait()
}
