// ABOUTME: Tests for the volume control
// ABOUTME: Covers gain math, validation, and smooth ramping
package process

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessioncast/audiograph/pkg/audio"
)

func TestVolumeGainDoubling(t *testing.T) {
	v, err := NewVolumeControl(6.0206)
	require.NoError(t, err)

	out, err := v.Process(buf(0.25))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Samples[0], 1e-3)
}

func TestVolumeGainHalving(t *testing.T) {
	v, err := NewVolumeControl(-6.0206)
	require.NoError(t, err)

	out, err := v.Process(buf(0.5))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, out.Samples[0], 1e-3)
}

func TestVolumeUnity(t *testing.T) {
	v, err := NewVolumeControl(0)
	require.NoError(t, err)

	out, err := v.Process(buf(0.123, -0.456))
	require.NoError(t, err)
	assert.InDelta(t, 0.123, out.Samples[0], 1e-6)
	assert.InDelta(t, -0.456, out.Samples[1], 1e-6)
}

func TestVolumeValidation(t *testing.T) {
	var cfgErr *audio.ConfigError

	_, err := NewVolumeControl(-200)
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewVolumeControl(30)
	require.ErrorAs(t, err, &cfgErr)

	v, err := NewVolumeControl(0)
	require.NoError(t, err)
	assert.ErrorAs(t, v.SetGainDB(100), &cfgErr)
	assert.ErrorAs(t, v.SetGainSmooth(0, -time.Second), &cfgErr)
}

func TestVolumeSmoothRamp(t *testing.T) {
	v, err := NewVolumeControl(0)
	require.NoError(t, err)

	// Ramp from unity to silence floor over 100ms at 16kHz mono: 1600
	// samples. Feed ones and watch the gain descend monotonically.
	require.NoError(t, v.SetGainSmooth(-96, 100*time.Millisecond))

	in := audio.NewBuffer(audio.Speech(), make([]float32, 1600))
	for i := range in.Samples {
		in.Samples[i] = 1.0
	}
	out, err := v.Process(in)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, out.Samples[0], 1e-3, "ramp starts at the old gain")
	for i := 1; i < len(out.Samples); i++ {
		assert.LessOrEqual(t, out.Samples[i], out.Samples[i-1], "ramp must be monotonic at sample %d", i)
	}

	// After the ramp, the new gain holds.
	out, err = v.Process(buf(1.0))
	require.NoError(t, err)
	assert.InDelta(t, audio.DBToLinear(-96), out.Samples[0], 1e-5)
}

func TestVolumeRampSpansBuffers(t *testing.T) {
	v, err := NewVolumeControl(0)
	require.NoError(t, err)
	require.NoError(t, v.SetGainSmooth(-20, 100*time.Millisecond))

	// 1600 ramp samples delivered as two 800-sample buffers.
	mk := func() *audio.Buffer {
		b := audio.NewBuffer(audio.Speech(), make([]float32, 800))
		for i := range b.Samples {
			b.Samples[i] = 1.0
		}
		return b
	}
	first, err := v.Process(mk())
	require.NoError(t, err)
	second, err := v.Process(mk())
	require.NoError(t, err)

	assert.Greater(t, first.Samples[0], second.Samples[799], "gain keeps falling across the buffer boundary")
	assert.InDelta(t, audio.DBToLinear(-20), second.Samples[799], 1e-3)
}

func TestVolumeRampRestart(t *testing.T) {
	v, err := NewVolumeControl(0)
	require.NoError(t, err)
	require.NoError(t, v.SetGainSmooth(-96, time.Second))

	// Consume part of the ramp, then redirect it. The new ramp starts
	// from the interpolated gain, not from unity.
	in := audio.NewBuffer(audio.Speech(), make([]float32, 8000))
	for i := range in.Samples {
		in.Samples[i] = 1.0
	}
	_, err = v.Process(in)
	require.NoError(t, err)
	mid := v.GainDB()
	assert.Less(t, mid, float32(-1))

	require.NoError(t, v.SetGainSmooth(0, time.Second))
	out, err := v.Process(buf(1.0))
	require.NoError(t, err)
	assert.InDelta(t, audio.DBToLinear(mid), out.Samples[0], 1e-2)
}

func TestVolumeZeroRampIsImmediate(t *testing.T) {
	v, err := NewVolumeControl(0)
	require.NoError(t, err)
	require.NoError(t, v.SetGainSmooth(-20, 0))

	out, err := v.Process(buf(1.0))
	require.NoError(t, err)
	assert.InDelta(t, audio.DBToLinear(-20), out.Samples[0], 1e-5)
}
