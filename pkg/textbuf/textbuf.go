// Package textbuf provides an append-only contiguous byte store for
// candidate line text.
//
// A Buffer holds every input line concatenated with no separators. One
// goroutine (the producer) appends; any number of goroutines may read
// concurrently. The bytes of a window returned by AppendRaw never change
// and its offset never shifts, so callers may retain (offset, length)
// pairs indefinitely.
package textbuf

import "sync"

// Buffer is a single contiguous byte store, safe for one writer and many
// concurrent readers.
type Buffer struct {
	mu   sync.RWMutex
	data []byte
}

// New returns an empty Buffer pre-sized to reduce reallocation for an
// expected input volume. A capacityHint of 0 is fine.
func New(capacityHint int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacityHint)}
}

// AppendRaw copies src onto the end of the buffer and returns the window
// (offset, length) at which it now lives. Safe for exactly one concurrent
// caller (the producer); see package docs.
func (b *Buffer) AppendRaw(src []byte) (offset, length uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	offset = uint32(len(b.data))
	b.data = append(b.data, src...)
	length = uint32(len(src))

	return offset, length
}

// WithBytes runs body with a read-only view of the whole buffer under a
// shared lock. body must not retain the slice past the call.
func (b *Buffer) WithBytes(body func(data []byte)) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	body(b.data)
}

// Bytes returns the raw window [offset, offset+length). The slice is only
// valid for the duration of use by the caller; later appends may move the
// buffer to a larger backing array, but they never overwrite bytes inside
// an existing window, so the returned slice keeps its contents in
// practice. Callers on the hot path should prefer passing a body to
// WithBytes so the contract stays explicit.
func (b *Buffer) Bytes(offset, length uint32) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.data[offset : offset+length]
}

// String decodes the window as UTF-8. Cold path only (rendering, preview
// substitution, final stdout emission) - never called from the matcher.
func (b *Buffer) String(offset, length uint32) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return string(b.data[offset : offset+length])
}

// Len reports the number of bytes appended so far.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.data)
}

// Seal reclaims growth headroom once the producer has signaled EOF. It is
// safe to call seal concurrently with reads; it never changes existing
// bytes or their offsets, only the backing array's spare capacity.
func (b *Buffer) Seal() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = b.data[:len(b.data):len(b.data)]
}
