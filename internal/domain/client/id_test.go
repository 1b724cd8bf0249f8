package client

import (
	"strings"
	"testing"
)

func TestAssignIDKeepsRequested(t *testing.T) {
	tests := []string{"alice", "a", "same-name", "名前"}
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			if got := AssignID(name); got != name {
				t.Fatalf("AssignID(%q) = %q, want unchanged", name, got)
			}
		})
	}
}

func TestAssignIDGeneratesWhenEmpty(t *testing.T) {
	got := AssignID("")
	if len(got) != IDLength {
		t.Fatalf("expected generated id of length %d, got %q", IDLength, got)
	}
}

func TestNewIDDistribution(t *testing.T) {
	const n = 20000
	counts := make(map[rune]int, len(IDAlphabet))

	for range n {
		id := NewID()
		if len(id) != IDLength {
			t.Fatalf("expected length %d, got %q", IDLength, id)
		}
		for _, r := range id {
			if !strings.ContainsRune(IDAlphabet, r) {
				t.Fatalf("symbol %q outside alphabet in %q", r, id)
			}
			counts[r]++
		}
	}

	total := n * IDLength
	expected := float64(total) / float64(len(IDAlphabet))
	for _, r := range IDAlphabet {
		got := float64(counts[r])
		// 60000 draws over 16 symbols: expected 3750, stddev ~59.
		if got < expected*0.9 || got > expected*1.1 {
			t.Errorf("symbol %q drawn %v times, expected about %v", r, got, expected)
		}
	}
}

func TestNewIDN(t *testing.T) {
	if got := NewIDN(0); got != "" {
		t.Fatalf("NewIDN(0) = %q, want empty", got)
	}
	if got := NewIDN(8); len(got) != 8 {
		t.Fatalf("NewIDN(8) = %q, want length 8", got)
	}
}
