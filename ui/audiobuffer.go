package ui

import (
	"io"
	"sync"
)

// AudioRingBuffer is a thread-safe byte FIFO implementing io.Reader.
// The emulation goroutine pushes PCM with Write and oto's player pulls it
// with Read. Read blocks while empty; Write never blocks and discards the
// oldest bytes when full.
type AudioRingBuffer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	head   int // next byte to read
	count  int
	closed bool

	dropped uint64 // bytes discarded on overflow
}

// NewAudioRingBuffer creates a ring buffer holding up to capacity bytes.
func NewAudioRingBuffer(capacity int) *AudioRingBuffer {
	rb := &AudioRingBuffer{buf: make([]byte, capacity)}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

// Write appends p, discarding the oldest data if p does not fit.
func (rb *AudioRingBuffer) Write(p []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.closed || len(p) == 0 {
		return
	}

	size := len(rb.buf)
	if len(p) > size {
		rb.dropped += uint64(len(p) - size)
		p = p[len(p)-size:]
	}
	if over := rb.count + len(p) - size; over > 0 {
		rb.head = (rb.head + over) % size
		rb.count -= over
		rb.dropped += uint64(over)
	}

	tail := (rb.head + rb.count) % size
	n := copy(rb.buf[tail:], p)
	copy(rb.buf, p[n:])
	rb.count += len(p)

	rb.cond.Signal()
}

// Read implements io.Reader. It blocks until data is available and
// returns io.EOF once the buffer is closed and drained.
func (rb *AudioRingBuffer) Read(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for rb.count == 0 {
		if rb.closed {
			return 0, io.EOF
		}
		rb.cond.Wait()
	}

	want := min(len(p), rb.count)
	n := copy(p[:want], rb.buf[rb.head:])
	if n < want {
		n += copy(p[n:want], rb.buf)
	}
	rb.head = (rb.head + n) % len(rb.buf)
	rb.count -= n
	return n, nil
}

// Buffered returns the number of bytes waiting to be read.
func (rb *AudioRingBuffer) Buffered() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Dropped returns the total bytes discarded on overflow.
func (rb *AudioRingBuffer) Dropped() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.dropped
}

// Clear discards all buffered data.
func (rb *AudioRingBuffer) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.head = 0
	rb.count = 0
}

// Close wakes any blocked reader. Reads drain what is left and then
// return io.EOF.
func (rb *AudioRingBuffer) Close() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.closed = true
	rb.cond.Broadcast()
}
