// ABOUTME: In-memory and discard sinks
// ABOUTME: Memory accumulates samples, Null counts and drops them
package sink

import (
	"sync"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// Memory accumulates everything written to it, up to an optional
// sample cap. Useful in tests and for short preview captures.
type Memory struct {
	mu      sync.Mutex
	samples []float32
	format  audio.Format
	limit   int
	closed  bool
}

// NewMemory builds a memory sink. limit caps retained samples; 0 means
// unbounded.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit}
}

// Write appends the buffer's samples, dropping the oldest beyond the
// cap so the sink keeps the most recent audio.
func (m *Memory) Write(buf *audio.Buffer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.format = buf.Format
	m.samples = append(m.samples, buf.Samples...)
	if m.limit > 0 && len(m.samples) > m.limit {
		m.samples = m.samples[len(m.samples)-m.limit:]
	}
	return nil
}

// Flush is a no-op.
func (m *Memory) Flush() error { return nil }

// Close stops accepting writes; the samples stay readable.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Samples returns a copy of everything retained.
func (m *Memory) Samples() []float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float32, len(m.samples))
	copy(out, m.samples)
	return out
}

// LastFormat returns the format of the last written buffer. It is not
// named Format so the sink stays format-agnostic to the graph and
// accepts any stream.
func (m *Memory) LastFormat() audio.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

func (m *Memory) Name() string { return "memory" }

// Null discards audio while counting it, for benchmarks and for
// topologies that only care about detector side effects.
type Null struct {
	mu      sync.Mutex
	buffers uint64
	samples uint64
}

// NewNull builds a discarding sink.
func NewNull() *Null { return &Null{} }

func (n *Null) Write(buf *audio.Buffer) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.buffers++
	n.samples += uint64(len(buf.Samples))
	return nil
}

func (n *Null) Flush() error { return nil }
func (n *Null) Close() error { return nil }

// Buffers returns how many buffers were discarded.
func (n *Null) Buffers() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.buffers
}

// Samples returns how many samples were discarded.
func (n *Null) Samples() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.samples
}

func (n *Null) Name() string { return "null" }
