package stream

import (
	"errors"
	"testing"
)

func TestSetCloseID(t *testing.T) {
	set := NewSet()
	a1, a2, b := New(1), New(1), New(1)
	set.Add("a", a1)
	set.Add("a", a2)
	set.Add("b", b)

	if set.Len() != 3 {
		t.Fatalf("expected 3 streams, got %d", set.Len())
	}

	cause := errors.New("unsubscribed")
	if n := set.CloseID("a", cause); n != 2 {
		t.Fatalf("expected 2 closed, got %d", n)
	}
	if !errors.Is(a1.Err(), cause) || !errors.Is(a2.Err(), cause) {
		t.Fatal("expected both a streams closed with cause")
	}
	if b.Err() != nil {
		t.Fatal("stream b must stay open")
	}
	if n := set.CloseID("a", cause); n != 0 {
		t.Fatalf("expected second CloseID to close 0, got %d", n)
	}
	if set.Len() != 1 {
		t.Fatalf("expected 1 stream left, got %d", set.Len())
	}
}

func TestSetRemove(t *testing.T) {
	set := NewSet()
	s := New(1)
	set.Add("x", s)
	set.Remove("x", s)
	set.Remove("x", s)
	set.Remove("never", s)

	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
	if s.Err() != nil {
		t.Fatal("Remove must not close the stream")
	}
}

func TestSetCloseAll(t *testing.T) {
	set := NewSet()
	streams := []*Stream{New(1), New(1), New(1)}
	set.Add("a", streams[0])
	set.Add("b", streams[1])
	set.Add("b", streams[2])

	if n := set.CloseAll(nil); n != 3 {
		t.Fatalf("expected 3 closed, got %d", n)
	}
	for i, s := range streams {
		if !errors.Is(s.Err(), ErrClosed) {
			t.Fatalf("stream %d not closed: %v", i, s.Err())
		}
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty set, got %d", set.Len())
	}
}
