// ABOUTME: Tests for the look-ahead normalizer
// ABOUTME: Covers attenuation, pass-through, delay, and drain
package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessioncast/audiograph/pkg/audio"
)

func TestNormalizerValidation(t *testing.T) {
	var cfgErr *audio.ConfigError

	_, err := NewNormalizer(3, 100*time.Millisecond)
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewNormalizer(-6, 0)
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewNormalizer(-6, time.Minute)
	require.ErrorAs(t, err, &cfgErr)
}

func TestNormalizerAttenuatesLoudAudio(t *testing.T) {
	n, err := NewNormalizer(-6, 10*time.Millisecond)
	require.NoError(t, err)

	// 10ms look-ahead at 16kHz is 160 samples. Feed 320 samples of a
	// 0.9 peak square so 160 are released.
	in := audio.NewBuffer(audio.Speech(), make([]float32, 320))
	for i := range in.Samples {
		in.Samples[i] = 0.9
	}
	out, err := n.Process(in)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.Samples, 160)

	target := audio.DBToLinear(-6)
	assert.InDelta(t, target, out.Samples[0], 1e-4, "peak pulled down to target")
	assert.InDelta(t, 0.9, n.MaxPeak(), 1e-6)
	assert.Equal(t, uint64(1), n.Normalized())
}

func TestNormalizerNeverAmplifies(t *testing.T) {
	n, err := NewNormalizer(-6, 10*time.Millisecond)
	require.NoError(t, err)

	in := audio.NewBuffer(audio.Speech(), make([]float32, 320))
	for i := range in.Samples {
		in.Samples[i] = 0.01
	}
	out, err := n.Process(in)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.InDelta(t, 0.01, out.Samples[0], 1e-6, "quiet audio passes untouched")
}

func TestNormalizerDelaysByWindow(t *testing.T) {
	n, err := NewNormalizer(-6, 10*time.Millisecond)
	require.NoError(t, err)

	// Less than one window buffered: nothing comes out yet.
	in := audio.NewBuffer(audio.Speech(), make([]float32, 100))
	out, err := n.Process(in)
	require.NoError(t, err)
	assert.Nil(t, out)

	// Second buffer pushes the total past the window.
	out, err = n.Process(audio.NewBuffer(audio.Speech(), make([]float32, 100)))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, out.Samples, 40)
}

func TestNormalizerDrain(t *testing.T) {
	n, err := NewNormalizer(-6, 10*time.Millisecond)
	require.NoError(t, err)

	in := audio.NewBuffer(audio.Speech(), make([]float32, 100))
	for i := range in.Samples {
		in.Samples[i] = 0.9
	}
	out, err := n.Process(in)
	require.NoError(t, err)
	require.Nil(t, out)

	tail := n.Drain()
	require.NotNil(t, tail)
	assert.Len(t, tail.Samples, 100)
	assert.InDelta(t, audio.DBToLinear(-6), tail.Samples[0], 1e-4)
	assert.Nil(t, n.Drain(), "second drain is empty")
}

func TestNormalizerReset(t *testing.T) {
	n, err := NewNormalizer(-6, 10*time.Millisecond)
	require.NoError(t, err)

	_, err = n.Process(audio.NewBuffer(audio.Speech(), make([]float32, 100)))
	require.NoError(t, err)
	n.Reset()
	assert.Nil(t, n.Drain())
}
