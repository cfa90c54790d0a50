// ABOUTME: Multi-input audio mixer
// ABOUTME: Sum, average, and weighted mixing with hard clamping
package process

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// MaxInputs bounds how many streams one mixer combines.
const MaxInputs = 8

// MixMode selects how the mixer combines its inputs.
type MixMode int

const (
	// MixSum adds samples directly.
	MixSum MixMode = iota
	// MixAverage divides the sum by the number of audible inputs,
	// those with a non-zero balance, so muting one leg does not halve
	// the other.
	MixAverage
	// MixWeighted scales each input by its balance before summing.
	MixWeighted
)

func (m MixMode) String() string {
	switch m {
	case MixSum:
		return "sum"
	case MixAverage:
		return "average"
	case MixWeighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// Mixer step errors. A step that fails is skipped; the graph keeps
// running.
var (
	ErrInputCount     = errors.New("process: mixer input count mismatch")
	ErrFormatMismatch = errors.New("process: mixer input formats differ")
	ErrLengthMismatch = errors.New("process: mixer input lengths differ")
)

// Mixer combines a fixed number of input streams into one. Balances
// can be adjusted while the graph runs.
type Mixer struct {
	mu       sync.Mutex
	mode     MixMode
	balances []float32

	buffers uint64
	clipped uint64
}

// NewMixer builds a mixer for inputs streams. Balances default to 1.0.
func NewMixer(inputs int, mode MixMode) (*Mixer, error) {
	if inputs < 2 || inputs > MaxInputs {
		return nil, audio.NewConfigError("inputs", "%d outside [2, %d]", inputs, MaxInputs)
	}
	if mode < MixSum || mode > MixWeighted {
		return nil, audio.NewConfigError("mode", "unknown mix mode %d", mode)
	}
	balances := make([]float32, inputs)
	for i := range balances {
		balances[i] = 1.0
	}
	return &Mixer{mode: mode, balances: balances}, nil
}

// SetBalance adjusts one input's weight. Weights outside [0, 1] are
// rejected.
func (m *Mixer) SetBalance(input int, balance float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if input < 0 || input >= len(m.balances) {
		return audio.NewConfigError("input", "index %d out of range [0,%d)", input, len(m.balances))
	}
	if balance < 0 || balance > 1 {
		return audio.NewConfigError("balance", "%.2f outside [0, 1]", balance)
	}
	m.balances[input] = balance
	return nil
}

// Balance returns one input's current weight.
func (m *Mixer) Balance(input int) float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if input < 0 || input >= len(m.balances) {
		return 0
	}
	return m.balances[input]
}

// InputCount returns the number of inbound edges the mixer requires.
func (m *Mixer) InputCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.balances)
}

// ProcessMulti mixes one buffer from each input. Inputs must share a
// length; the output reuses the first input's buffer. The earliest
// input timestamp wins so downstream ordering holds.
func (m *Mixer) ProcessMulti(ins []*audio.Buffer) (*audio.Buffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(ins) != len(m.balances) {
		return nil, fmt.Errorf("%w: configured for %d, got %d", ErrInputCount, len(m.balances), len(ins))
	}
	n := len(ins[0].Samples)
	for _, in := range ins[1:] {
		if !in.Format.Compatible(ins[0].Format) {
			return nil, fmt.Errorf("%w: %s vs %s", ErrFormatMismatch, ins[0].Format, in.Format)
		}
		if len(in.Samples) != n {
			return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, n, len(in.Samples))
		}
	}

	out := ins[0]
	scale := float32(1)
	if m.mode == MixAverage {
		audible := 0
		for _, b := range m.balances {
			if b > 0 {
				audible++
			}
		}
		if audible == 0 {
			audible = len(m.balances)
		}
		scale = 1 / float32(audible)
	}

	for i := 0; i < n; i++ {
		var sum float32
		for j, in := range ins {
			s := in.Samples[i]
			if m.mode == MixWeighted {
				s *= m.balances[j]
			}
			sum += s
		}
		sum *= scale
		if sum > 1 || sum < -1 {
			m.clipped++
			sum = audio.Clamp(sum)
		}
		out.Samples[i] = sum
	}

	for _, in := range ins[1:] {
		if in.Timestamp.Before(out.Timestamp) {
			out.Timestamp = in.Timestamp
		}
	}
	m.buffers++
	return out, nil
}

// Process rejects single-input use; the mixer only runs as a
// multi-input node.
func (m *Mixer) Process(in *audio.Buffer) (*audio.Buffer, error) {
	return nil, errors.New("process: mixer requires multiple inputs")
}

// OutputFormat is the shared input format, unchanged.
func (m *Mixer) OutputFormat(in audio.Format) audio.Format { return in }

// Reset clears counters. Balances are configuration and survive.
func (m *Mixer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers = 0
	m.clipped = 0
}

// ClippedSamples returns how many mixed samples hit the clamp.
func (m *Mixer) ClippedSamples() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clipped
}

func (m *Mixer) Name() string { return fmt.Sprintf("mixer(%s)", m.mode) }
