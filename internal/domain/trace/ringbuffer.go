package trace

import "sync"

// RingBuffer is a concurrent-safe fixed-size ring buffer holding the most
// recent lookups.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []Entry
	size    int
	head    int
	count   int
}

// NewRingBuffer creates a ring buffer that holds up to size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = 100
	}
	return &RingBuffer{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add appends an entry to the ring buffer, overwriting the oldest if full.
func (rb *RingBuffer) Add(e Entry) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.entries[rb.head] = e
	rb.head = (rb.head + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// Last returns the last n entries in chronological order.
func (rb *RingBuffer) Last(n int) []Entry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n > rb.count {
		n = rb.count
	}
	if n <= 0 {
		return nil
	}

	result := make([]Entry, n)
	start := (rb.head - n + rb.size) % rb.size
	for i := range n {
		result[i] = rb.entries[(start+i)%rb.size]
	}
	return result
}

// Count returns the number of entries currently stored.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// LastOf returns up to n of the most recent entries of the given kind, in
// chronological order. An empty kind matches every entry.
func (rb *RingBuffer) LastOf(kind Kind, n int) []Entry {
	if kind == "" {
		return rb.Last(n)
	}

	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if n <= 0 {
		return nil
	}

	var result []Entry
	for i := 1; i <= rb.count && len(result) < n; i++ {
		e := rb.entries[(rb.head-i+rb.size)%rb.size]
		if e.Kind == kind {
			result = append(result, e)
		}
	}
	for l, r := 0, len(result)-1; l < r; l, r = l+1, r-1 {
		result[l], result[r] = result[r], result[l]
	}
	return result
}
