// ABOUTME: RMS silence detector
// ABOUTME: Pass-through voice activity detection with duration hysteresis
package process

import (
	"sync"
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// SilenceDetector flags sustained silence without altering the audio.
// A buffer whose RMS level falls below the threshold counts toward the
// silent run; the detector reports silence only once the run exceeds
// the minimum duration, so short pauses between words do not trip it.
type SilenceDetector struct {
	mu sync.Mutex

	thresholdDB float32
	minSilence  time.Duration

	silentSamples uint64 // current run, in frames
	silent        bool

	totalFrames  uint64
	silentFrames uint64 // all-time, for the ratio

	onChange func(silent bool)
}

// NewSilenceDetector builds a detector. thresholdDB is the RMS level
// below which a buffer counts as silent; minSilence is how long the
// level must stay there before Silent flips.
func NewSilenceDetector(thresholdDB float32, minSilence time.Duration) (*SilenceDetector, error) {
	if thresholdDB > 0 {
		return nil, audio.NewConfigError("thresholdDB", "%.1f is above full scale", thresholdDB)
	}
	if minSilence <= 0 {
		return nil, audio.NewConfigError("minSilence", "%v must be positive", minSilence)
	}
	return &SilenceDetector{thresholdDB: thresholdDB, minSilence: minSilence}, nil
}

// OnChange registers a callback fired from the processing goroutine
// whenever the silence state flips. Set it before the graph starts.
func (d *SilenceDetector) OnChange(fn func(silent bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onChange = fn
}

// Process classifies the buffer and passes it through untouched.
func (d *SilenceDetector) Process(in *audio.Buffer) (*audio.Buffer, error) {
	if len(in.Samples) == 0 {
		return in, nil
	}
	d.mu.Lock()
	frames := uint64(in.Frames())
	d.totalFrames += frames

	if in.IsSilent(d.thresholdDB) {
		d.silentSamples += frames
		d.silentFrames += frames
		minFrames := uint64(in.Format.FramesFor(d.minSilence))
		if !d.silent && d.silentSamples >= minFrames {
			d.silent = true
			d.fireLocked(true)
		}
	} else {
		d.silentSamples = 0
		if d.silent {
			d.silent = false
			d.fireLocked(false)
		}
	}
	d.mu.Unlock()
	return in, nil
}

func (d *SilenceDetector) fireLocked(silent bool) {
	if d.onChange != nil {
		d.onChange(silent)
	}
}

// Silent reports whether the stream is currently in sustained silence.
func (d *SilenceDetector) Silent() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.silent
}

// SilenceRatio returns the fraction of processed frames below the
// threshold, 0 when nothing has been processed.
func (d *SilenceDetector) SilenceRatio() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.totalFrames == 0 {
		return 0
	}
	return float64(d.silentFrames) / float64(d.totalFrames)
}

// OutputFormat is the input format, unchanged.
func (d *SilenceDetector) OutputFormat(in audio.Format) audio.Format { return in }

// Reset clears the silent run and the ratio counters.
func (d *SilenceDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silentSamples = 0
	d.silent = false
	d.totalFrames = 0
	d.silentFrames = 0
}

func (d *SilenceDetector) Name() string { return "silence-detector" }
