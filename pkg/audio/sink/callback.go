// ABOUTME: Callback sink
// ABOUTME: Hands buffers to arbitrary consumer code
package sink

import (
	"sync"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// Callback invokes a function for every buffer, on the graph worker
// goroutine. The consumer owns the buffer after the call; slow
// consumers delay the whole graph, so hand off to a channel if the
// work is heavy.
type Callback struct {
	mu     sync.Mutex
	fn     func(*audio.Buffer) error
	closed bool
}

// NewCallback builds a callback sink.
func NewCallback(fn func(*audio.Buffer) error) (*Callback, error) {
	if fn == nil {
		return nil, audio.NewConfigError("fn", "callback must not be nil")
	}
	return &Callback{fn: fn}, nil
}

func (c *Callback) Write(buf *audio.Buffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.fn(buf)
}

func (c *Callback) Flush() error { return nil }

func (c *Callback) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Callback) Name() string { return "callback" }
