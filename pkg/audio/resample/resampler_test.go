// ABOUTME: Tests for the FFT resampler
// ABOUTME: Covers tone preservation, exact ratios, and validation
package resample

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessioncast/audiograph/pkg/audio"
)

func sine(rate uint32, freq float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

// dominantFreq scans a coarse DFT grid and returns the frequency with
// the most energy.
func dominantFreq(samples []float32, rate uint32) float64 {
	best, bestMag := 0.0, 0.0
	for f := 20.0; f <= 2000.0; f += 10.0 {
		var re, im float64
		for i, s := range samples {
			phase := 2 * math.Pi * f * float64(i) / float64(rate)
			re += float64(s) * math.Cos(phase)
			im += float64(s) * math.Sin(phase)
		}
		mag := re*re + im*im
		if mag > bestMag {
			bestMag = mag
			best = f
		}
	}
	return best
}

func TestNewValidation(t *testing.T) {
	var cfgErr *audio.ConfigError

	_, err := New(0, 48000, 1, 256)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(16000, 200001, 1, 256)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(16000, 48000, 0, 256)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(16000, 48000, MaxResampleChannels+1, 256)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(16000, 48000, 1, 0)
	require.ErrorAs(t, err, &cfgErr)

	_, err = New(16000, 48000, 1, MaxChunkSize+1)
	require.ErrorAs(t, err, &cfgErr)
}

func TestChunkRatioIsExact(t *testing.T) {
	tests := []struct {
		name           string
		inRate, outRate uint32
		chunk          int
	}{
		{"16k to 48k", 16000, 48000, 256},
		{"48k to 16k", 48000, 16000, 256},
		{"44.1k to 48k", 44100, 48000, 1024},
		{"8k to 16k", 8000, 16000, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.inRate, tt.outRate, 1, tt.chunk)
			require.NoError(t, err)
			// outChunk/inChunk must equal outRate/inRate exactly.
			assert.Equal(t,
				r.InputChunk()*int(tt.outRate),
				r.OutputChunk()*int(tt.inRate))
			assert.GreaterOrEqual(t, r.InputChunk(), tt.chunk)
		})
	}
}

func TestUpsamplePreservesTone(t *testing.T) {
	r, err := New(16000, 48000, 1, 256)
	require.NoError(t, err)

	in := audio.NewBuffer(audio.Speech(), sine(16000, 440, 32*r.InputChunk()))
	out, err := r.Process(in)
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, uint32(48000), out.Format.SampleRate)
	assert.Len(t, out.Samples, 32*r.OutputChunk())

	got := dominantFreq(out.Samples, 48000)
	assert.InDelta(t, 440, got, 5, "dominant frequency must survive upsampling")
}

func TestRoundTripPreservesToneAndLength(t *testing.T) {
	up, err := New(16000, 48000, 1, 256)
	require.NoError(t, err)
	down, err := New(48000, 16000, 1, 768)
	require.NoError(t, err)

	n := 32 * up.InputChunk()
	in := audio.NewBuffer(audio.Speech(), sine(16000, 440, n))

	mid, err := up.Process(in)
	require.NoError(t, err)
	require.NotNil(t, mid)

	back, err := down.Process(mid)
	require.NoError(t, err)
	require.NotNil(t, back)

	assert.Equal(t, n, len(back.Samples), "round trip must preserve length exactly")
	got := dominantFreq(back.Samples, 16000)
	assert.InDelta(t, 440, got, 5, "dominant frequency must survive the round trip")
}

func TestAccumulatesPartialChunks(t *testing.T) {
	r, err := New(16000, 48000, 1, 256)
	require.NoError(t, err)

	half := r.InputChunk() / 2
	out, err := r.Process(audio.NewBuffer(audio.Speech(), make([]float32, half)))
	require.NoError(t, err)
	assert.Nil(t, out, "half a chunk produces nothing")

	out, err = r.Process(audio.NewBuffer(audio.Speech(), make([]float32, half)))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Len(t, out.Samples, r.OutputChunk())
}

func TestSameRatePassThrough(t *testing.T) {
	r, err := New(16000, 16000, 1, 256)
	require.NoError(t, err)

	in := audio.NewBuffer(audio.Speech(), sine(16000, 440, 100))
	out, err := r.Process(in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestRateMismatchRejected(t *testing.T) {
	r, err := New(16000, 48000, 1, 256)
	require.NoError(t, err)

	wrong := audio.NewBuffer(audio.NewFormat(44100, 1, audio.F32), make([]float32, 100))
	_, err = r.Process(wrong)
	assert.ErrorIs(t, err, ErrRateMismatch)

	stereo := audio.NewBuffer(audio.NewFormat(16000, 2, audio.F32), make([]float32, 100))
	_, err = r.Process(stereo)
	assert.ErrorIs(t, err, ErrRateMismatch)
}

func TestStereoInterleaving(t *testing.T) {
	r, err := New(16000, 32000, 2, 128)
	require.NoError(t, err)

	// Left carries a tone, right is silent; they must stay separated.
	n := r.InputChunk()
	left := sine(16000, 440, n)
	samples := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		samples[2*i] = left[i]
	}
	in := audio.NewBuffer(audio.NewFormat(16000, 2, audio.F32), samples)

	out, err := r.Process(in)
	require.NoError(t, err)
	require.NotNil(t, out)
	require.Len(t, out.Samples, 2*r.OutputChunk())

	var rightEnergy float64
	for i := 1; i < len(out.Samples); i += 2 {
		rightEnergy += float64(out.Samples[i]) * float64(out.Samples[i])
	}
	assert.Less(t, rightEnergy, 1e-9, "silent channel must stay silent")
}

func TestReset(t *testing.T) {
	r, err := New(16000, 48000, 1, 256)
	require.NoError(t, err)

	_, err = r.Process(audio.NewBuffer(audio.Speech(), make([]float32, 100)))
	require.NoError(t, err)
	r.Reset()

	out, err := r.Process(audio.NewBuffer(audio.Speech(), make([]float32, r.InputChunk()-100)))
	require.NoError(t, err)
	assert.Nil(t, out, "reset must drop buffered partial chunks")
}
