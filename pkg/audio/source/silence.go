// ABOUTME: Silence generator source
// ABOUTME: Wall-clock paced zero buffers for disabled inputs and tests
package source

import (
	"sync"
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// Silence produces zero-filled buffers at real-time rate. It stands in
// for a disabled capture device so downstream mixers keep receiving
// both legs.
type Silence struct {
	mu        sync.Mutex
	format    audio.Format
	bufferDur time.Duration
	started   bool
	next      time.Time
}

// NewSilence builds a silence source emitting one buffer of bufferDur
// per interval.
func NewSilence(format audio.Format, bufferDur time.Duration) (*Silence, error) {
	if !format.Valid() {
		return nil, audio.NewConfigError("format", "invalid format %s", format)
	}
	if bufferDur <= 0 {
		return nil, audio.NewConfigError("bufferDur", "%v must be positive", bufferDur)
	}
	return &Silence{format: format, bufferDur: bufferDur}, nil
}

// Format declares the generated stream format.
func (s *Silence) Format() audio.Format { return s.format }

// Start arms the pacing clock.
func (s *Silence) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.next = time.Now()
	return nil
}

// Stop disarms the source.
func (s *Silence) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// Read returns one buffer when its wall-clock slot has arrived, (nil,
// nil) otherwise.
func (s *Silence) Read() (*audio.Buffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || time.Now().Before(s.next) {
		return nil, nil
	}
	buf := audio.NewSilent(s.format, s.bufferDur)
	buf.Timestamp = s.next
	s.next = s.next.Add(s.bufferDur)
	return buf, nil
}

func (s *Silence) Name() string { return "silence" }
