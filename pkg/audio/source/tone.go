// ABOUTME: Test tone generator source
// ABOUTME: Generates a phase-continuous sine wave at real-time rate
package source

import (
	"math"
	"sync"
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// Tone generates a sine wave, duplicated across all channels, paced at
// real-time rate. Phase is continuous across buffers.
type Tone struct {
	mu        sync.Mutex
	format    audio.Format
	frequency float64
	amplitude float32
	bufferDur time.Duration

	sampleIndex uint64
	started     bool
	next        time.Time
}

// NewTone builds a tone source. Amplitude is clamped to [0, 1].
func NewTone(format audio.Format, frequency float64, amplitude float32, bufferDur time.Duration) (*Tone, error) {
	if !format.Valid() {
		return nil, audio.NewConfigError("format", "invalid format %s", format)
	}
	if frequency <= 0 || frequency >= float64(format.SampleRate)/2 {
		return nil, audio.NewConfigError("frequency", "%.1f outside (0, Nyquist)", frequency)
	}
	if bufferDur <= 0 {
		return nil, audio.NewConfigError("bufferDur", "%v must be positive", bufferDur)
	}
	if amplitude < 0 {
		amplitude = 0
	}
	if amplitude > 1 {
		amplitude = 1
	}
	return &Tone{format: format, frequency: frequency, amplitude: amplitude, bufferDur: bufferDur}, nil
}

// Format declares the generated stream format.
func (t *Tone) Format() audio.Format { return t.format }

// Start arms the pacing clock and resets phase.
func (t *Tone) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = true
	t.sampleIndex = 0
	t.next = time.Now()
	return nil
}

// Stop disarms the source.
func (t *Tone) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = false
	return nil
}

// Read returns the next buffer when its wall-clock slot has arrived.
func (t *Tone) Read() (*audio.Buffer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started || time.Now().Before(t.next) {
		return nil, nil
	}

	frames := t.format.FramesFor(t.bufferDur)
	samples := make([]float32, frames*t.format.Channels)
	for i := 0; i < frames; i++ {
		at := float64(t.sampleIndex+uint64(i)) / float64(t.format.SampleRate)
		v := float32(math.Sin(2*math.Pi*t.frequency*at)) * t.amplitude
		for ch := 0; ch < t.format.Channels; ch++ {
			samples[i*t.format.Channels+ch] = v
		}
	}
	t.sampleIndex += uint64(frames)

	buf := audio.NewBuffer(t.format, samples)
	buf.Timestamp = t.next
	t.next = t.next.Add(t.bufferDur)
	return buf, nil
}

func (t *Tone) Name() string { return "tone" }
