// ABOUTME: WAV file sink
// ABOUTME: Writes integer PCM WAV files via go-audio
package sink

import (
	"errors"
	"fmt"
	"os"
	"sync"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// ErrClosed means the sink received a write after Close.
var ErrClosed = errors.New("sink: closed")

// WAV writes buffers to an uncompressed PCM WAV file. The format's
// sample encoding picks the bit depth; float input is converted to
// integer PCM on the way out.
type WAV struct {
	mu     sync.Mutex
	file   *os.File
	enc    *wav.Encoder
	format audio.Format
	depth  int
	frames uint64
	closed bool
}

// NewWAV creates path and prepares a WAV encoder for the given format.
// The encoding must be an integer width; use I16 for speech-model
// pipelines.
func NewWAV(path string, format audio.Format) (*WAV, error) {
	if !format.Valid() {
		return nil, audio.NewConfigError("format", "invalid format %s", format)
	}
	var depth int
	switch format.Sample {
	case audio.I16:
		depth = 16
	case audio.I24:
		depth = 24
	case audio.I32:
		depth = 32
	default:
		return nil, audio.NewConfigError("format", "WAV needs an integer encoding, got %s", format.Sample)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sink: creating %s: %w", path, err)
	}
	enc := wav.NewEncoder(f, int(format.SampleRate), depth, format.Channels, 1)
	return &WAV{file: f, enc: enc, format: format, depth: depth}, nil
}

// Format returns the stream format the file expects.
func (w *WAV) Format() audio.Format { return w.format }

// Write converts the buffer to integer PCM and appends it.
func (w *WAV) Write(buf *audio.Buffer) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if !buf.Format.Compatible(w.format) {
		return fmt.Errorf("sink: WAV expects %s, got %s", w.format, buf.Format)
	}

	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		switch w.depth {
		case 16:
			data[i] = int(audio.SampleToInt16(s))
		case 24:
			data[i] = audio.SampleToInt24(s)
		default:
			data[i] = int(audio.SampleToInt32(s))
		}
	}
	ib := &goaudio.IntBuffer{
		Data:           data,
		Format:         &goaudio.Format{NumChannels: w.format.Channels, SampleRate: int(w.format.SampleRate)},
		SourceBitDepth: w.depth,
	}
	if err := w.enc.Write(ib); err != nil {
		return fmt.Errorf("sink: writing WAV data: %w", err)
	}
	w.frames += uint64(buf.Frames())
	return nil
}

// Flush is a no-op; the encoder finalizes headers on Close.
func (w *WAV) Flush() error { return nil }

// Close finalizes the WAV header and closes the file.
func (w *WAV) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("sink: finalizing WAV: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("sink: closing WAV file: %w", err)
	}
	return nil
}

// Frames returns how many frames have been written.
func (w *WAV) Frames() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *WAV) Name() string { return "wav" }
