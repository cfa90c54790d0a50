// ABOUTME: Tests for audio sinks
// ABOUTME: Covers WAV round-trip, memory, null, and callback sinks
package sink

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sessioncast/audiograph/pkg/audio"
)

func TestWAVRejectsFloatEncoding(t *testing.T) {
	var cfgErr *audio.ConfigError
	_, err := NewWAV(filepath.Join(t.TempDir(), "x.wav"), audio.Speech())
	require.ErrorAs(t, err, &cfgErr)
}

func TestWAVWritesReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	format := audio.NewFormat(16000, 1, audio.I16)

	w, err := NewWAV(path, format)
	require.NoError(t, err)

	in := audio.NewBuffer(audio.NewFormat(16000, 1, audio.F32), []float32{0, 0.5, -0.5, 1.0})
	require.NoError(t, w.Write(in))
	require.NoError(t, w.Close())
	assert.Equal(t, uint64(4), w.Frames())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.True(t, dec.IsValidFile())

	assert.Equal(t, 16000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	require.Len(t, buf.Data, 4)
	assert.Equal(t, 0, buf.Data[0])
	assert.InDelta(t, 16383, buf.Data[1], 1)
	assert.InDelta(t, -16383, buf.Data[2], 1)
	assert.Equal(t, 32767, buf.Data[3])
}

func TestWAVRejectsMismatchedBuffer(t *testing.T) {
	w, err := NewWAV(filepath.Join(t.TempDir(), "out.wav"), audio.NewFormat(16000, 1, audio.I16))
	require.NoError(t, err)
	defer w.Close()

	wrong := audio.NewBuffer(audio.NewFormat(48000, 1, audio.F32), []float32{0})
	assert.Error(t, w.Write(wrong))
}

func TestWAVWriteAfterClose(t *testing.T) {
	w, err := NewWAV(filepath.Join(t.TempDir(), "out.wav"), audio.NewFormat(16000, 1, audio.I16))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "double close is a no-op")

	err = w.Write(audio.NewBuffer(audio.NewFormat(16000, 1, audio.F32), []float32{0}))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryAccumulates(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.Write(audio.NewBuffer(audio.Speech(), []float32{1, 2})))
	require.NoError(t, m.Write(audio.NewBuffer(audio.Speech(), []float32{3})))

	assert.Equal(t, []float32{1, 2, 3}, m.Samples())
	assert.Equal(t, audio.Speech(), m.LastFormat())
}

func TestMemoryKeepsMostRecent(t *testing.T) {
	m := NewMemory(2)
	require.NoError(t, m.Write(audio.NewBuffer(audio.Speech(), []float32{1, 2, 3})))
	assert.Equal(t, []float32{2, 3}, m.Samples())
}

func TestMemoryCloseStopsWrites(t *testing.T) {
	m := NewMemory(0)
	require.NoError(t, m.Write(audio.NewBuffer(audio.Speech(), []float32{1})))
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Write(audio.NewBuffer(audio.Speech(), []float32{2})), ErrClosed)
	assert.Equal(t, []float32{1}, m.Samples(), "samples stay readable after close")
}

func TestNullCounts(t *testing.T) {
	n := NewNull()
	require.NoError(t, n.Write(audio.NewBuffer(audio.Speech(), make([]float32, 160))))
	require.NoError(t, n.Write(audio.NewBuffer(audio.Speech(), make([]float32, 160))))

	assert.Equal(t, uint64(2), n.Buffers())
	assert.Equal(t, uint64(320), n.Samples())
	assert.NoError(t, n.Close())
}

func TestCallbackDelivers(t *testing.T) {
	var got []float32
	c, err := NewCallback(func(buf *audio.Buffer) error {
		got = append(got, buf.Samples...)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, c.Write(audio.NewBuffer(audio.Speech(), []float32{1, 2})))
	assert.Equal(t, []float32{1, 2}, got)
}

func TestCallbackPropagatesError(t *testing.T) {
	wantErr := errors.New("downstream full")
	c, err := NewCallback(func(*audio.Buffer) error { return wantErr })
	require.NoError(t, err)

	assert.ErrorIs(t, c.Write(audio.NewBuffer(audio.Speech(), []float32{1})), wantErr)
}

func TestCallbackNilRejected(t *testing.T) {
	var cfgErr *audio.ConfigError
	_, err := NewCallback(nil)
	assert.ErrorAs(t, err, &cfgErr)
}
