// ABOUTME: Tests for the silence detector
// ABOUTME: Covers hysteresis, pass-through, ratio, and callbacks
package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessioncast/audiograph/pkg/audio"
)

func silentBuf(frames int) *audio.Buffer {
	return audio.NewBuffer(audio.Speech(), make([]float32, frames))
}

func loudBuf(frames int) *audio.Buffer {
	b := audio.NewBuffer(audio.Speech(), make([]float32, frames))
	for i := range b.Samples {
		b.Samples[i] = 0.5
	}
	return b
}

func TestSilenceDetectorValidation(t *testing.T) {
	var cfgErr *audio.ConfigError

	_, err := NewSilenceDetector(5, time.Second)
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewSilenceDetector(-40, 0)
	require.ErrorAs(t, err, &cfgErr)
}

func TestSilenceDetectorHysteresis(t *testing.T) {
	// 100ms minimum at 16kHz is 1600 frames.
	d, err := NewSilenceDetector(-40, 100*time.Millisecond)
	require.NoError(t, err)

	_, err = d.Process(silentBuf(800))
	require.NoError(t, err)
	assert.False(t, d.Silent(), "below minimum duration")

	_, err = d.Process(silentBuf(800))
	require.NoError(t, err)
	assert.True(t, d.Silent(), "run reached minimum duration")

	_, err = d.Process(loudBuf(160))
	require.NoError(t, err)
	assert.False(t, d.Silent(), "audio resets the run")

	// A fresh silent run must accumulate from zero again.
	_, err = d.Process(silentBuf(800))
	require.NoError(t, err)
	assert.False(t, d.Silent())
}

func TestSilenceDetectorPassThrough(t *testing.T) {
	d, err := NewSilenceDetector(-40, 100*time.Millisecond)
	require.NoError(t, err)

	in := loudBuf(160)
	want := make([]float32, len(in.Samples))
	copy(want, in.Samples)

	out, err := d.Process(in)
	require.NoError(t, err)
	assert.Same(t, in, out, "detector must not replace the buffer")
	assert.Equal(t, want, out.Samples, "detector must not alter samples")
}

func TestSilenceDetectorRatio(t *testing.T) {
	d, err := NewSilenceDetector(-40, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = d.Process(silentBuf(300))
	require.NoError(t, err)
	_, err = d.Process(loudBuf(100))
	require.NoError(t, err)

	assert.InDelta(t, 0.75, d.SilenceRatio(), 1e-6)
}

func TestSilenceDetectorCallback(t *testing.T) {
	d, err := NewSilenceDetector(-40, 10*time.Millisecond)
	require.NoError(t, err)

	var events []bool
	d.OnChange(func(silent bool) { events = append(events, silent) })

	_, err = d.Process(silentBuf(400))
	require.NoError(t, err)
	_, err = d.Process(loudBuf(100))
	require.NoError(t, err)
	_, err = d.Process(silentBuf(400))
	require.NoError(t, err)

	assert.Equal(t, []bool{true, false, true}, events)
}

func TestSilenceDetectorReset(t *testing.T) {
	d, err := NewSilenceDetector(-40, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = d.Process(silentBuf(400))
	require.NoError(t, err)
	require.True(t, d.Silent())

	d.Reset()
	assert.False(t, d.Silent())
	assert.Zero(t, d.SilenceRatio())
}
