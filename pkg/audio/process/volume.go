// ABOUTME: Volume control processor
// ABOUTME: Decibel gain with sample-accurate linear ramping
package process

import (
	"sync"
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

const (
	// MinGainDB and MaxGainDB bound accepted gain settings.
	MinGainDB = -96.0
	MaxGainDB = 24.0
)

// VolumeControl scales samples by a decibel gain. SetGainSmooth ramps
// to a new gain linearly in the linear-gain domain over a fixed number
// of samples, which avoids zipper noise on live adjustments.
type VolumeControl struct {
	mu sync.Mutex

	gain   float32 // current linear gain
	target float32 // ramp destination, linear
	from   float32 // linear gain when the ramp began

	rampDur   time.Duration // requested ramp awaiting a sample rate
	rampTotal int           // ramp length in samples, 0 when idle
	rampPos   int

	buffers uint64
}

// NewVolumeControl builds a volume stage at the given decibel gain.
func NewVolumeControl(gainDB float32) (*VolumeControl, error) {
	if gainDB < MinGainDB || gainDB > MaxGainDB {
		return nil, audio.NewConfigError("gainDB", "%.1f outside [%.0f, %.0f]", gainDB, MinGainDB, MaxGainDB)
	}
	g := audio.DBToLinear(gainDB)
	return &VolumeControl{gain: g, target: g, from: g}, nil
}

// SetGainDB jumps to a new gain immediately, cancelling any ramp.
func (v *VolumeControl) SetGainDB(gainDB float32) error {
	if gainDB < MinGainDB || gainDB > MaxGainDB {
		return audio.NewConfigError("gainDB", "%.1f outside [%.0f, %.0f]", gainDB, MinGainDB, MaxGainDB)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = audio.DBToLinear(gainDB)
	v.target = v.gain
	v.rampDur = 0
	v.rampTotal = 0
	v.rampPos = 0
	return nil
}

// SetGainSmooth ramps to gainDB over the given duration. The ramp
// length is fixed in samples using the rate of the next processed
// buffer; a second call before completion restarts from the current
// interpolated gain.
func (v *VolumeControl) SetGainSmooth(gainDB float32, ramp time.Duration) error {
	if gainDB < MinGainDB || gainDB > MaxGainDB {
		return audio.NewConfigError("gainDB", "%.1f outside [%.0f, %.0f]", gainDB, MinGainDB, MaxGainDB)
	}
	if ramp < 0 {
		return audio.NewConfigError("ramp", "negative duration %v", ramp)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if ramp == 0 {
		v.gain = audio.DBToLinear(gainDB)
		v.target = v.gain
		v.rampDur = 0
		v.rampTotal = 0
		v.rampPos = 0
		return nil
	}
	v.from = v.currentLocked()
	v.gain = v.from
	v.target = audio.DBToLinear(gainDB)
	// Sample count is resolved against the next buffer's rate.
	v.rampDur = ramp
	v.rampTotal = 0
	v.rampPos = 0
	return nil
}

// GainDB returns the momentary gain in decibels.
func (v *VolumeControl) GainDB() float32 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return audio.LinearToDB(v.currentLocked())
}

// currentLocked is the interpolated gain at the current ramp position.
func (v *VolumeControl) currentLocked() float32 {
	if v.rampTotal <= 0 {
		return v.gain
	}
	t := float32(v.rampPos) / float32(v.rampTotal)
	return v.from + (v.target-v.from)*t
}

// Process scales the buffer in place and returns it.
func (v *VolumeControl) Process(in *audio.Buffer) (*audio.Buffer, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.rampDur > 0 {
		v.rampTotal = in.Format.FramesFor(v.rampDur) * in.Format.Channels
		v.rampDur = 0
		if v.rampTotal == 0 {
			v.gain = v.target
		}
	}

	for i := range in.Samples {
		if v.rampTotal > 0 {
			in.Samples[i] *= v.currentLocked()
			v.rampPos++
			if v.rampPos >= v.rampTotal {
				v.gain = v.target
				v.rampTotal = 0
				v.rampPos = 0
			}
		} else {
			in.Samples[i] *= v.gain
		}
	}
	v.buffers++
	return in, nil
}

// OutputFormat is the input format, unchanged.
func (v *VolumeControl) OutputFormat(in audio.Format) audio.Format { return in }

// Reset cancels any ramp, holding the current target gain.
func (v *VolumeControl) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gain = v.target
	v.rampDur = 0
	v.rampTotal = 0
	v.rampPos = 0
	v.buffers = 0
}

func (v *VolumeControl) Name() string { return "volume" }
