package stream

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStreamFIFO(t *testing.T) {
	s := New(4)
	ctx := context.Background()

	want := []Frame{Connected(), Message("abc", "one"), Keepalive("abc"), Message("abc", "two")}
	for _, f := range want {
		if err := s.Send(ctx, f); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if n := len(s.Frames()); n != len(want) {
		t.Fatalf("expected %d queued, got %d", len(want), n)
	}

	for i, w := range want {
		got := <-s.Frames()
		if got != w {
			t.Fatalf("frame %d = %+v, want %+v", i, got, w)
		}
	}
}

func TestStreamSendAfterClose(t *testing.T) {
	s := New(4)
	s.Close(nil)

	err := s.Send(context.Background(), Connected())
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if len(s.Frames()) != 0 {
		t.Fatalf("closed stream accepted a frame")
	}
}

func TestStreamCloseCauseIsSticky(t *testing.T) {
	s := New(1)
	cause := errors.New("peer went away")
	s.Close(cause)
	s.Close(errors.New("second close"))

	if !errors.Is(s.Err(), cause) {
		t.Fatalf("expected first cause, got %v", s.Err())
	}
	if err := s.Send(context.Background(), Connected()); !errors.Is(err, cause) {
		t.Fatalf("expected Send to return cause, got %v", err)
	}
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestStreamSendBlocksUntilClosed(t *testing.T) {
	s := New(1)
	ctx := context.Background()
	if err := s.Send(ctx, Connected()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Send(ctx, Message("x", "blocked")) }()

	select {
	case err := <-errCh:
		t.Fatalf("Send on full stream returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	s.Close(nil)
	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Close")
	}
}

func TestStreamSendContextCancel(t *testing.T) {
	s := New(1)
	_ = s.Send(context.Background(), Connected())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Send(ctx, Connected()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewDefaultBuffer(t *testing.T) {
	s := New(0)
	if cap(s.frames) != DefaultBuffer {
		t.Fatalf("expected capacity %d, got %d", DefaultBuffer, cap(s.frames))
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindConnected, "connected"},
		{KindMessage, "message"},
		{KindKeepalive, "keepalive"},
		{Kind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
