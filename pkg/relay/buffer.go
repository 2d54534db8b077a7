package relay

import "sync"

// Sentinel marks the end of a test run's output stream.
const Sentinel = '\x04'

// Buffer is the handoff between a test worker writing output and the display
// loop that forwards it to a panel. One producer and one consumer in practice.
type Buffer struct {
	mu      sync.Mutex
	pending string
}

// NewBuffer creates an empty buffer for a single test run
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds text to the pending content
func (b *Buffer) Append(text string) {
	b.mu.Lock()
	b.pending += text
	b.mu.Unlock()
}

// Write implements io.Writer so test output can be streamed straight in
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(string(p))
	return len(p), nil
}

// Drain returns everything pending and clears it. Never blocks on empty.
func (b *Buffer) Drain() string {
	b.mu.Lock()
	output := b.pending
	b.pending = ""
	b.mu.Unlock()
	return output
}

// Unread puts text back in front of whatever is pending
func (b *Buffer) Unread(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	b.pending = text + b.pending
	b.mu.Unlock()
}

// Finish appends the sentinel, ending the stream
func (b *Buffer) Finish() {
	b.Append(string(Sentinel))
}
