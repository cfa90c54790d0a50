// ABOUTME: FFT-based sample rate converter
// ABOUTME: Spectral bin mapping with exact integer chunk ratios
package resample

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/sessioncast/audiograph/pkg/audio"
)

const (
	// MaxSampleRate bounds accepted rates.
	MaxSampleRate = 192000
	// MaxChunkSize bounds the requested chunk size in frames.
	MaxChunkSize = 16384
	// MaxResampleChannels caps the channel count at stereo. Each
	// channel carries its own FFT state, so wider layouts should be
	// split upstream.
	MaxResampleChannels = 2
)

// ErrRateMismatch means a buffer arrived at a rate or channel count
// other than the one the resampler was built for.
var ErrRateMismatch = errors.New("resample: buffer format does not match configuration")

// Resampler converts between sample rates in the frequency domain.
// Input is accumulated per channel until a full chunk is available;
// each chunk maps to an exact number of output frames.
type Resampler struct {
	inRate   uint32
	outRate  uint32
	channels int

	inChunk  int // frames per input FFT
	outChunk int // frames per output FFT

	fftIn  *fourier.FFT
	fftOut *fourier.FFT

	pending [][]float64 // per-channel accumulation, deinterleaved
	startTS time.Time

	scratch  []float64
	coeffIn  []complex128
	coeffOut []complex128

	frames uint64
}

// New builds a resampler from inRate to outRate. chunkSize is the
// requested input chunk in frames; it is rounded up so the output
// chunk count is an exact integer for the rate pair.
func New(inRate, outRate uint32, channels, chunkSize int) (*Resampler, error) {
	if inRate == 0 || inRate > MaxSampleRate {
		return nil, audio.NewConfigError("inRate", "%d outside (0, %d]", inRate, MaxSampleRate)
	}
	if outRate == 0 || outRate > MaxSampleRate {
		return nil, audio.NewConfigError("outRate", "%d outside (0, %d]", outRate, MaxSampleRate)
	}
	if channels < 1 || channels > MaxResampleChannels {
		return nil, audio.NewConfigError("channels", "%d outside [1, %d]", channels, MaxResampleChannels)
	}
	if chunkSize < 1 || chunkSize > MaxChunkSize {
		return nil, audio.NewConfigError("chunkSize", "%d outside [1, %d]", chunkSize, MaxChunkSize)
	}

	g := gcd(int(inRate), int(outRate))
	inStep := int(inRate) / g
	outStep := int(outRate) / g

	// Round the chunk up to a multiple of inStep so
	// inChunk * outRate / inRate is an integer.
	inChunk := (chunkSize + inStep - 1) / inStep * inStep
	outChunk := inChunk / inStep * outStep

	r := &Resampler{
		inRate:   inRate,
		outRate:  outRate,
		channels: channels,
		inChunk:  inChunk,
		outChunk: outChunk,
		fftIn:    fourier.NewFFT(inChunk),
		fftOut:   fourier.NewFFT(outChunk),
		pending:  make([][]float64, channels),
		scratch:  make([]float64, inChunk),
		coeffIn:  make([]complex128, inChunk/2+1),
		coeffOut: make([]complex128, outChunk/2+1),
	}
	return r, nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// InputChunk returns the effective input chunk size in frames.
func (r *Resampler) InputChunk() int { return r.inChunk }

// OutputChunk returns the frames produced per input chunk.
func (r *Resampler) OutputChunk() int { return r.outChunk }

// Process accumulates input and returns resampled audio once at least
// one full chunk is buffered, or (nil, nil) while filling. Identical
// rates pass the buffer through unchanged.
func (r *Resampler) Process(in *audio.Buffer) (*audio.Buffer, error) {
	if in.Format.SampleRate != r.inRate || in.Format.Channels != r.channels {
		return nil, fmt.Errorf("%w: got %s, want %dHz/%dch",
			ErrRateMismatch, in.Format, r.inRate, r.channels)
	}
	if r.inRate == r.outRate {
		return in, nil
	}
	if len(in.Samples) == 0 {
		return nil, nil
	}

	if len(r.pending[0]) == 0 {
		r.startTS = in.Timestamp
	}
	for i, s := range in.Samples {
		ch := i % r.channels
		r.pending[ch] = append(r.pending[ch], float64(s))
	}

	chunks := len(r.pending[0]) / r.inChunk
	if chunks == 0 {
		return nil, nil
	}

	out := make([]float32, 0, chunks*r.outChunk*r.channels)
	chunkOut := make([][]float64, r.channels)
	for c := 0; c < chunks; c++ {
		for ch := 0; ch < r.channels; ch++ {
			chunkOut[ch] = r.resampleChunk(r.pending[ch][c*r.inChunk : (c+1)*r.inChunk])
		}
		for i := 0; i < r.outChunk; i++ {
			for ch := 0; ch < r.channels; ch++ {
				out = append(out, float32(chunkOut[ch][i]))
			}
		}
	}
	consumed := chunks * r.inChunk
	for ch := range r.pending {
		r.pending[ch] = append(r.pending[ch][:0], r.pending[ch][consumed:]...)
	}
	r.frames += uint64(chunks * r.outChunk)

	outFormat := audio.Format{SampleRate: r.outRate, Channels: r.channels, Sample: in.Format.Sample}
	buf := &audio.Buffer{Format: outFormat, Samples: out, Timestamp: r.startTS}
	r.startTS = r.startTS.Add(time.Duration(consumed) * time.Second / time.Duration(r.inRate))
	return buf, nil
}

// resampleChunk maps one mono chunk between bin grids. The forward
// transform is unnormalized, so the inverse output is divided by the
// analysis length to restore amplitude.
func (r *Resampler) resampleChunk(chunk []float64) []float64 {
	copy(r.scratch, chunk)
	r.fftIn.Coefficients(r.coeffIn, r.scratch)

	for i := range r.coeffOut {
		r.coeffOut[i] = 0
	}
	n := len(r.coeffIn)
	if len(r.coeffOut) < n {
		n = len(r.coeffOut)
	}
	copy(r.coeffOut[:n], r.coeffIn[:n])
	// The output Nyquist bin must be real.
	last := len(r.coeffOut) - 1
	r.coeffOut[last] = complex(real(r.coeffOut[last]), 0)

	seq := r.fftOut.Sequence(nil, r.coeffOut)
	scale := 1 / float64(r.inChunk)
	for i := range seq {
		seq[i] *= scale
	}
	return seq
}

// OutputFormat maps the input format to the output rate.
func (r *Resampler) OutputFormat(in audio.Format) audio.Format {
	in.SampleRate = r.outRate
	return in
}

// Reset drops accumulated partial chunks.
func (r *Resampler) Reset() {
	for ch := range r.pending {
		r.pending[ch] = r.pending[ch][:0]
	}
	r.frames = 0
}

func (r *Resampler) Name() string {
	return fmt.Sprintf("resample(%d->%d)", r.inRate, r.outRate)
}
