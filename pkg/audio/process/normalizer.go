// ABOUTME: Look-ahead peak normalizer
// ABOUTME: Attenuates toward a target level, never amplifies
package process

import (
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// MaxLookAhead bounds the normalizer window.
const MaxLookAhead = 10 * time.Second

// Normalizer holds output peaks at or below a target level. It delays
// the stream by the look-ahead window so a peak is seen before the
// samples around it are emitted, then applies gain = min(1,
// target/peak) over the window. Quiet audio passes untouched.
type Normalizer struct {
	targetDB  float32
	target    float32 // linear
	lookAhead time.Duration

	lookSamples int // resolved from the first buffer's format
	pending     []float32
	startTS     time.Time
	format      audio.Format

	buffers    uint64
	maxPeak    float32
	normalized uint64
}

// NewNormalizer builds a normalizer aiming at targetDB with the given
// look-ahead window. The target must be at or below 0 dBFS.
func NewNormalizer(targetDB float32, lookAhead time.Duration) (*Normalizer, error) {
	if targetDB > 0 {
		return nil, audio.NewConfigError("targetDB", "%.1f is above full scale", targetDB)
	}
	if targetDB < audio.SilenceFloorDB {
		return nil, audio.NewConfigError("targetDB", "%.1f below silence floor", targetDB)
	}
	if lookAhead <= 0 || lookAhead > MaxLookAhead {
		return nil, audio.NewConfigError("lookAhead", "%v outside (0, %v]", lookAhead, MaxLookAhead)
	}
	return &Normalizer{
		targetDB:  targetDB,
		target:    audio.DBToLinear(targetDB),
		lookAhead: lookAhead,
	}, nil
}

// Process buffers the input and emits everything older than the
// look-ahead window, attenuated by the current window peak. The first
// window's worth of audio is held back, so output lags input by the
// look-ahead duration.
func (n *Normalizer) Process(in *audio.Buffer) (*audio.Buffer, error) {
	if len(in.Samples) == 0 {
		return in, nil
	}
	if n.lookSamples == 0 {
		n.lookSamples = in.Format.FramesFor(n.lookAhead) * in.Format.Channels
		n.format = in.Format
	}
	if len(n.pending) == 0 {
		n.startTS = in.Timestamp
	}
	n.pending = append(n.pending, in.Samples...)

	emit := len(n.pending) - n.lookSamples
	if emit <= 0 {
		return nil, nil
	}

	gain := float32(1)
	peak := peakOf(n.pending)
	if peak > n.maxPeak {
		n.maxPeak = peak
	}
	if peak > n.target && peak > 0 {
		gain = n.target / peak
		n.normalized++
	}

	out := make([]float32, emit)
	for i, s := range n.pending[:emit] {
		out[i] = s * gain
	}
	n.pending = n.pending[emit:]

	buf := &audio.Buffer{Format: in.Format, Samples: out, Timestamp: n.startTS}
	n.startTS = n.startTS.Add(time.Duration(emit/in.Format.Channels) * time.Second / time.Duration(in.Format.SampleRate))
	n.buffers++
	return buf, nil
}

// Drain returns the held-back tail, attenuated like Process output.
// The graph calls it on an orderly stop so recordings do not lose
// their final window.
func (n *Normalizer) Drain() *audio.Buffer {
	if len(n.pending) == 0 {
		return nil
	}
	gain := float32(1)
	if peak := peakOf(n.pending); peak > n.target && peak > 0 {
		gain = n.target / peak
	}
	out := make([]float32, len(n.pending))
	for i, s := range n.pending {
		out[i] = s * gain
	}
	n.pending = nil
	return &audio.Buffer{Format: n.format, Samples: out, Timestamp: n.startTS}
}

// MaxPeak returns the largest absolute sample value observed.
func (n *Normalizer) MaxPeak() float32 { return n.maxPeak }

// Normalized returns how many windows were attenuated.
func (n *Normalizer) Normalized() uint64 { return n.normalized }

func peakOf(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// OutputFormat is the input format, unchanged.
func (n *Normalizer) OutputFormat(in audio.Format) audio.Format { return in }

// Reset drops buffered audio and the resolved window size.
func (n *Normalizer) Reset() {
	n.pending = nil
	n.lookSamples = 0
	n.buffers = 0
	n.maxPeak = 0
	n.normalized = 0
}

func (n *Normalizer) Name() string { return "normalizer" }
