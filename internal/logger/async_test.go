package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// recordingHandler collects slog.Records for test assertions.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	delay   time.Duration // optional per-record processing delay
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrHandler{parent: h, attrs: attrs}
}
func (h *recordingHandler) WithGroup(string) slog.Handler { return h }

// attrHandler records into its parent with extra attributes attached.
type attrHandler struct {
	parent *recordingHandler
	attrs  []slog.Attr
}

func (h *attrHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *attrHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	rec.AddAttrs(h.attrs...)
	return h.parent.Handle(ctx, rec)
}

func (h *attrHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *attrHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestAsyncHandler_BasicWrite(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 100, 1)

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0)
	if err := ah.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}

	ah.Close()

	if got := inner.count(); got != 1 {
		t.Fatalf("expected 1 record, got %d", got)
	}
}

func TestAsyncHandler_ConcurrentWrites(t *testing.T) {
	const goroutines = 100
	const perGoroutine = 100
	total := goroutines * perGoroutine

	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10000, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				rec := slog.NewRecord(time.Now(), slog.LevelInfo, "concurrent", 0)
				_ = ah.Handle(context.Background(), rec)
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != total {
		t.Fatalf("expected %d records, got %d", total, got)
	}
}

func TestAsyncHandler_ChannelFullDrops(t *testing.T) {
	// Use a slow inner handler with a tiny channel to force drops.
	inner := &recordingHandler{delay: 10 * time.Millisecond}
	ah := NewAsyncHandler(inner, 1, 1)

	// Rapidly enqueue more records than the channel can hold.
	for range 50 {
		rec := slog.NewRecord(time.Now(), slog.LevelInfo, "flood", 0)
		_ = ah.Handle(context.Background(), rec)
	}

	ah.Close()

	dropped := ah.DroppedCount()
	if dropped == 0 {
		t.Fatal("expected some records to be dropped, got 0")
	}
	t.Logf("dropped %d out of 50 records", dropped)
}

func TestAsyncHandler_CloseFlushesRemaining(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 1000, 2)

	const total = 200
	for range total {
		rec := slog.NewRecord(time.Now(), slog.LevelInfo, "flush-test", 0)
		_ = ah.Handle(context.Background(), rec)
	}

	// Close should block until all enqueued records are drained.
	ah.Close()

	if got := inner.count(); got != total {
		t.Fatalf("expected %d records after close, got %d", total, got)
	}
}

func TestAsyncHandler_WithAttrsKeepsAttributes(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10, 1)

	child := ah.WithAttrs([]slog.Attr{slog.String("client_id", "a1f")})
	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "with attrs", 0)
	_ = child.Handle(context.Background(), rec)
	ah.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if len(inner.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(inner.records))
	}
	found := false
	inner.records[0].Attrs(func(a slog.Attr) bool {
		if a.Key == "client_id" && a.Value.String() == "a1f" {
			found = true
		}
		return true
	})
	if !found {
		t.Fatal("expected client_id attribute on drained record")
	}
}

func TestAsyncHandler_HandleAfterCloseDrops(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10, 1)
	ah.Close()
	ah.Close() // second close is a no-op

	rec := slog.NewRecord(time.Now(), slog.LevelInfo, "late", 0)
	if err := ah.Handle(context.Background(), rec); err != nil {
		t.Fatalf("Handle after Close returned error: %v", err)
	}
	if got := ah.DroppedCount(); got != 1 {
		t.Fatalf("expected 1 dropped record, got %d", got)
	}
	if got := inner.count(); got != 0 {
		t.Fatalf("expected no records written after close, got %d", got)
	}
}
