// ABOUTME: Audio type definitions
// ABOUTME: Defines sample formats, stream formats, and PCM buffers
package audio

import (
	"fmt"
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// MaxChannels is the most channels a Format will accept.
	MaxChannels = 32
)

// SampleFormat identifies the on-the-wire encoding of a PCM sample.
// The graph itself always carries float32; integer formats matter at
// the capture and file boundaries.
type SampleFormat int

const (
	F32 SampleFormat = iota
	I16
	I24
	I32
)

// Size returns the width of one sample in bytes.
func (s SampleFormat) Size() int {
	switch s {
	case I16:
		return 2
	case I24:
		return 3
	default:
		return 4
	}
}

func (s SampleFormat) String() string {
	switch s {
	case F32:
		return "f32"
	case I16:
		return "i16"
	case I24:
		return "i24"
	case I32:
		return "i32"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Format describes a PCM stream: sample rate in Hz, interleaved channel
// count, and sample encoding.
type Format struct {
	SampleRate uint32
	Channels   int
	Sample     SampleFormat
}

// NewFormat builds a Format with the given parameters.
func NewFormat(sampleRate uint32, channels int, sample SampleFormat) Format {
	return Format{SampleRate: sampleRate, Channels: channels, Sample: sample}
}

// Speech is 16kHz mono float32, the rate speech models expect.
func Speech() Format {
	return Format{SampleRate: 16000, Channels: 1, Sample: F32}
}

// CDQuality is 44.1kHz stereo float32.
func CDQuality() Format {
	return Format{SampleRate: 44100, Channels: 2, Sample: F32}
}

// Professional is 48kHz stereo float32.
func Professional() Format {
	return Format{SampleRate: 48000, Channels: 2, Sample: F32}
}

// Valid reports whether the format describes a usable stream.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.Channels <= MaxChannels
}

// Compatible reports whether two formats can be connected directly,
// ignoring sample encoding since the graph converts everything to
// float32 at the edges.
func (f Format) Compatible(other Format) bool {
	return f.SampleRate == other.SampleRate && f.Channels == other.Channels
}

// BytesPerSecond returns the data rate of the encoded stream.
func (f Format) BytesPerSecond() int {
	return int(f.SampleRate) * f.Channels * f.Sample.Size()
}

// FramesFor returns the frame count covering duration d.
func (f Format) FramesFor(d time.Duration) int {
	return int(d * time.Duration(f.SampleRate) / time.Second)
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%s", f.SampleRate, f.Channels, f.Sample)
}

// Buffer is a chunk of interleaved float32 PCM flowing through the
// graph. Buffers move between stages; a stage that hands a buffer
// downstream must not touch it again.
type Buffer struct {
	Format    Format
	Samples   []float32
	Timestamp time.Time
	Seq       uint64
}

// NewBuffer wraps samples in a buffer stamped with the current time.
func NewBuffer(format Format, samples []float32) *Buffer {
	return &Buffer{Format: format, Samples: samples, Timestamp: time.Now()}
}

// NewSilent returns an all-zero buffer covering duration d.
func NewSilent(format Format, d time.Duration) *Buffer {
	n := format.FramesFor(d) * format.Channels
	return NewBuffer(format, make([]float32, n))
}

// Frames returns the number of sample frames (samples per channel).
func (b *Buffer) Frames() int {
	if b.Format.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Format.Channels
}

// Duration returns the playback time the buffer covers.
func (b *Buffer) Duration() time.Duration {
	if b.Format.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.Format.SampleRate)
}

// Clone returns a deep copy. Stages that need to retain audio after
// passing it on must clone, never alias.
func (b *Buffer) Clone() *Buffer {
	samples := make([]float32, len(b.Samples))
	copy(samples, b.Samples)
	return &Buffer{Format: b.Format, Samples: samples, Timestamp: b.Timestamp, Seq: b.Seq}
}

// RMS returns the root-mean-square level across all channels.
func (b *Buffer) RMS() float32 {
	if len(b.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range b.Samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(b.Samples))))
}

// Peak returns the largest absolute sample value.
func (b *Buffer) Peak() float32 {
	var peak float32
	for _, s := range b.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// IsSilent reports whether the RMS level is below thresholdDB.
func (b *Buffer) IsSilent(thresholdDB float32) bool {
	return LinearToDB(b.RMS()) < thresholdDB
}
