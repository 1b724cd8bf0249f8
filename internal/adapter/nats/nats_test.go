package nats

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Strob0t/ssecast/internal/logger"
)

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

// publish sends raw data on subject through the underlying connection, the
// way an external producer would.
func publish(t *testing.T, q *Queue, subject string, data []byte, header nats.Header) {
	t.Helper()
	msg := nats.NewMsg(subject)
	msg.Data = data
	for k, v := range header {
		msg.Header[k] = v
	}
	if err := q.nc.PublishMsg(msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

// uniqueSubject returns a per-test subject so parallel runs do not collide.
func uniqueSubject(t *testing.T) string {
	t.Helper()
	return "ssecast.test." + strings.ReplaceAll(t.Name(), "/", ".")
}

func TestConnectUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := Connect(ctx, "nats://127.0.0.1:1"); err == nil {
		t.Fatal("expected error connecting to closed port")
	}
}

func TestQueue_Subscribe(t *testing.T) {
	q := testConnect(t)
	subject := uniqueSubject(t)

	var (
		mu   sync.Mutex
		got  string
		done = make(chan struct{})
		once sync.Once
	)

	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, subj string, d []byte) error {
		mu.Lock()
		got = subj + "|" + string(d)
		mu.Unlock()
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	publish(t, q, subject, []byte("hello-nats"), nil)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if want := subject + "|hello-nats"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestQueue_RequestIDPropagation(t *testing.T) {
	q := testConnect(t)
	subject := uniqueSubject(t)

	const wantReqID = "req-abc-123"

	var (
		mu       sync.Mutex
		gotReqID string
		done     = make(chan struct{})
		once     sync.Once
	)

	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, _ []byte) error {
		mu.Lock()
		gotReqID = logger.RequestID(ctx)
		mu.Unlock()
		once.Do(func() { close(done) })
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	publish(t, q, subject, []byte("x"), nats.Header{headerRequestID: []string{wantReqID}})

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotReqID != wantReqID {
		t.Errorf("request ID = %q, want %q", gotReqID, wantReqID)
	}
}

func TestQueue_HandlerErrorKeepsSubscription(t *testing.T) {
	q := testConnect(t)
	subject := uniqueSubject(t)

	var (
		mu    sync.Mutex
		calls int
		done  = make(chan struct{})
	)

	stop, err := q.Subscribe(context.Background(), subject, func(_ context.Context, _ string, _ []byte) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 2 {
			close(done)
		}
		return errSentinel("handler failed")
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer stop()

	for range 2 {
		publish(t, q, subject, []byte("x"), nil)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for second delivery")
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
	if err := q.Drain(); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for q.IsConnected() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if q.IsConnected() {
		t.Error("IsConnected() = true after Drain, want false")
	}
}

type errSentinel string

func (e errSentinel) Error() string { return string(e) }

func TestLogAsyncError(t *testing.T) {
	tests := []struct {
		name      string
		sub       *nats.Subscription
		err       error
		wantLevel string
		wantSubj  string
	}{
		{name: "slow consumer", sub: &nats.Subscription{Subject: "ssecast.broadcast"}, err: nats.ErrSlowConsumer, wantLevel: "WARN", wantSubj: "ssecast.broadcast"},
		{name: "connection error", err: errSentinel("permissions violation"), wantLevel: "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			prev := slog.Default()
			slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
			defer slog.SetDefault(prev)

			logAsyncError(nil, tt.sub, tt.err)

			out := buf.String()
			if !strings.Contains(out, "level="+tt.wantLevel) {
				t.Errorf("expected level %s in %q", tt.wantLevel, out)
			}
			if !strings.Contains(out, tt.err.Error()) {
				t.Errorf("expected error text in %q", out)
			}
			if tt.wantSubj != "" && !strings.Contains(out, "subject="+tt.wantSubj) {
				t.Errorf("expected subject in %q", out)
			}
		})
	}
}
