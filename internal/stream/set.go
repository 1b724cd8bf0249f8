package stream

import "sync"

// Set indexes open streams by client id so a transport can close every
// connection behind an id. Several streams may share one id.
type Set struct {
	mu      sync.Mutex
	streams map[string]map[*Stream]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{streams: make(map[string]map[*Stream]struct{})}
}

// Add records s under id.
func (set *Set) Add(id string, s *Stream) {
	set.mu.Lock()
	defer set.mu.Unlock()
	m, ok := set.streams[id]
	if !ok {
		m = make(map[*Stream]struct{})
		set.streams[id] = m
	}
	m[s] = struct{}{}
}

// Remove forgets s. It does not close it.
func (set *Set) Remove(id string, s *Stream) {
	set.mu.Lock()
	defer set.mu.Unlock()
	m, ok := set.streams[id]
	if !ok {
		return
	}
	delete(m, s)
	if len(m) == 0 {
		delete(set.streams, id)
	}
}

// CloseID closes and forgets every stream under id and returns how many
// were closed.
func (set *Set) CloseID(id string, cause error) int {
	set.mu.Lock()
	m := set.streams[id]
	delete(set.streams, id)
	set.mu.Unlock()

	for s := range m {
		s.Close(cause)
	}
	return len(m)
}

// CloseAll closes and forgets every stream.
func (set *Set) CloseAll(cause error) int {
	set.mu.Lock()
	all := set.streams
	set.streams = make(map[string]map[*Stream]struct{})
	set.mu.Unlock()

	n := 0
	for _, m := range all {
		for s := range m {
			s.Close(cause)
			n++
		}
	}
	return n
}

// Len returns the number of open streams.
func (set *Set) Len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	n := 0
	for _, m := range set.streams {
		n += len(m)
	}
	return n
}
