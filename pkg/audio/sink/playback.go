// ABOUTME: Oto-based playback sink
// ABOUTME: Streams buffers to the system output device as 16-bit PCM
package sink

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// Playback streams audio to the default output device. Samples are
// converted to 16-bit PCM and fed through a pipe to a persistent oto
// player, so writes block when the device falls behind and the graph
// gets natural backpressure.
//
// oto allows one context per process; creating a second Playback with
// a different format fails.
type Playback struct {
	mu         sync.Mutex
	format     audio.Format
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	closed     bool

	log *logrus.Entry
}

// NewPlayback opens the output device at the given format.
func NewPlayback(format audio.Format) (*Playback, error) {
	if !format.Valid() {
		return nil, audio.NewConfigError("format", "invalid format %s", format)
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("sink: creating playback context: %w", err)
	}
	<-readyChan

	pr, pw := io.Pipe()
	player := ctx.NewPlayer(pr)
	player.Play()

	p := &Playback{
		format:     format,
		otoCtx:     ctx,
		player:     player,
		pipeReader: pr,
		pipeWriter: pw,
		log:        logrus.StandardLogger().WithField("component", "playback"),
	}
	p.log.WithField("format", format.String()).Info("Playback started")
	return p, nil
}

// Format returns the stream format the device was opened with.
func (p *Playback) Format() audio.Format { return p.format }

// Write converts the buffer to 16-bit PCM and streams it out.
func (p *Playback) Write(buf *audio.Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if !buf.Format.Compatible(p.format) {
		return fmt.Errorf("sink: playback expects %s, got %s", p.format, buf.Format)
	}

	out := make([]byte, len(buf.Samples)*2)
	for i, s := range buf.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.SampleToInt16(s)))
	}
	if _, err := p.pipeWriter.Write(out); err != nil {
		return fmt.Errorf("sink: playback pipe write: %w", err)
	}
	return nil
}

// Flush is a no-op; the player drains the pipe continuously.
func (p *Playback) Flush() error { return nil }

// Close tears down the player and suspends the device context.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.pipeWriter.Close()
	if err := p.player.Close(); err != nil {
		p.log.WithError(err).Warn("closing player")
	}
	p.pipeReader.Close()
	if err := p.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("sink: suspending playback context: %w", err)
	}
	p.log.Info("Playback closed")
	return nil
}

func (p *Playback) Name() string { return "playback" }
