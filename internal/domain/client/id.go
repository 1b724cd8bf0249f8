// Package client defines subscriber identity for the broadcaster.
package client

import "math/rand/v2"

// IDAlphabet is the symbol set for generated ids.
const IDAlphabet = "0123456789abcdef"

// IDLength is the length of generated ids. 16^3 = 4096 values; ids are
// display labels and collisions are not checked.
const IDLength = 3

// AssignID returns requested unchanged when it is non-empty, otherwise a
// freshly generated id.
func AssignID(requested string) string {
	if requested != "" {
		return requested
	}
	return NewID()
}

// NewID returns IDLength uniform draws from IDAlphabet.
func NewID() string {
	return NewIDN(IDLength)
}

// NewIDN returns n uniform draws from IDAlphabet.
func NewIDN(n int) string {
	if n < 1 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = IDAlphabet[rand.IntN(len(IDAlphabet))]
	}
	return string(b)
}
