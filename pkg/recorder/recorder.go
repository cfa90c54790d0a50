// ABOUTME: Recording session management
// ABOUTME: Builds and drives capture graphs with mix balance and VAD
package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sessioncast/audiograph/pkg/audio"
	"github.com/sessioncast/audiograph/pkg/audio/graph"
	"github.com/sessioncast/audiograph/pkg/audio/process"
	"github.com/sessioncast/audiograph/pkg/audio/sink"
	"github.com/sessioncast/audiograph/pkg/audio/source"
)

// StandardSampleRate is the capture rate for speech pipelines.
const StandardSampleRate = 16000

// State is the session lifecycle state.
type State int

const (
	StateStopped State = iota
	StateRecording
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// ErrNotRecording means the operation needs an active session.
var ErrNotRecording = errors.New("recorder: no active session")

// Config selects the inputs and processing for a session.
type Config struct {
	// SampleRate defaults to StandardSampleRate.
	SampleRate uint32
	// EnableMicrophone captures the default or named microphone.
	EnableMicrophone bool
	// MicrophoneDevice selects a device by name; empty is the default.
	MicrophoneDevice string
	// EnableSystemAudio captures system output where supported.
	EnableSystemAudio bool
	// Balance splits the mix: 0 is all microphone, 100 all system.
	Balance uint8
	// VADEnabled inserts a silence detector before the file.
	VADEnabled bool
	// VADThresholdDB defaults to -45 dB.
	VADThresholdDB float32
	// MinSilence defaults to 2s.
	MinSilence time.Duration
	// BufferDuration defaults to 10ms.
	BufferDuration time.Duration
	// OutputDir holds the recorded WAV files.
	OutputDir string
	// OnBuffer, when set, receives every mixed buffer alongside the
	// file. It runs on the graph worker, so keep it fast.
	OnBuffer func(*audio.Buffer) error
}

func (c *Config) applyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = StandardSampleRate
	}
	if c.VADThresholdDB == 0 {
		c.VADThresholdDB = -45
	}
	if c.MinSilence == 0 {
		c.MinSilence = 2 * time.Second
	}
	if c.BufferDuration == 0 {
		c.BufferDuration = 10 * time.Millisecond
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
}

// Status is a snapshot of a session.
type Status struct {
	State        State
	SessionID    string
	OutputPath   string
	Elapsed      time.Duration
	Silent       bool
	SilenceRatio float64
	Healthy      bool
	// Overruns counts dropped buffers across both the graph's edge
	// queues and the capture devices' internal queues. Errors
	// aggregates the per-node error counters.
	Overruns uint64
	Errors   uint64
	Err      error
}

// Recorder manages one recording session at a time.
type Recorder struct {
	mu      sync.Mutex
	cfg     Config
	state   State
	session string
	path    string
	started time.Time

	g       *graph.Graph
	mixer   *process.Mixer
	vad     *process.SilenceDetector
	nodeIDs []graph.NodeID
	sources []graph.Source

	log *logrus.Entry
}

// New builds a recorder. The config is validated once here; Start can
// then only fail on device and filesystem problems.
func New(cfg Config) (*Recorder, error) {
	cfg.applyDefaults()
	if cfg.Balance > 100 {
		return nil, audio.NewConfigError("balance", "%d outside [0, 100]", cfg.Balance)
	}
	if cfg.VADThresholdDB > 0 {
		return nil, audio.NewConfigError("vadThresholdDB", "%.1f is above full scale", cfg.VADThresholdDB)
	}
	if cfg.SampleRate > 192000 {
		return nil, audio.NewConfigError("sampleRate", "%d too high", cfg.SampleRate)
	}
	return &Recorder{
		cfg: cfg,
		log: logrus.StandardLogger().WithField("component", "recorder"),
	}, nil
}

// Start assembles the capture graph and begins a session, returning
// the session ID. A second Start without Stop fails.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateStopped {
		return "", graph.ErrAlreadyStarted
	}

	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("recorder: creating output dir: %w", err)
	}
	session := uuid.NewString()
	path := filepath.Join(r.cfg.OutputDir, fmt.Sprintf("recording-%s.wav", session))

	g, mixer, vad, err := r.buildGraph(path)
	if err != nil {
		return "", err
	}
	if err := g.Start(); err != nil {
		return "", err
	}

	r.g = g
	r.mixer = mixer
	r.vad = vad
	r.session = session
	r.path = path
	r.state = StateRecording
	r.started = time.Now()
	r.log.WithFields(logrus.Fields{
		"session": session,
		"path":    path,
		"mic":     r.cfg.EnableMicrophone,
		"system":  r.cfg.EnableSystemAudio,
	}).Info("Recording started")
	return session, nil
}

// buildGraph wires the session topology: each enabled input, a
// weighted mixer when there are two legs, the optional silence
// detector, and the WAV sink.
func (r *Recorder) buildGraph(path string) (*graph.Graph, *process.Mixer, *process.SilenceDetector, error) {
	captureFormat := audio.NewFormat(r.cfg.SampleRate, 1, audio.F32)
	fileFormat := audio.NewFormat(r.cfg.SampleRate, 1, audio.I16)
	g := graph.New(graph.WithLogger(logrus.StandardLogger()))

	mic, err := r.micSource(captureFormat)
	if err != nil {
		return nil, nil, nil, err
	}
	sys, err := r.systemSource(captureFormat)
	if err != nil {
		return nil, nil, nil, err
	}
	r.sources = []graph.Source{mic, sys}

	wavSink, err := sink.NewWAV(path, fileFormat)
	if err != nil {
		return nil, nil, nil, err
	}

	micID := g.AddSource(mic)
	sysID := g.AddSource(sys)

	mixer, err := process.NewMixer(2, process.MixWeighted)
	if err != nil {
		return nil, nil, nil, err
	}
	micW, sysW := splitBalance(r.cfg.Balance)
	if err := mixer.SetBalance(0, micW); err != nil {
		return nil, nil, nil, err
	}
	if err := mixer.SetBalance(1, sysW); err != nil {
		return nil, nil, nil, err
	}
	mixID := g.AddProcessor(mixer)

	if err := g.Connect(micID, mixID); err != nil {
		return nil, nil, nil, err
	}
	if err := g.Connect(sysID, mixID); err != nil {
		return nil, nil, nil, err
	}

	tail := mixID
	var vad *process.SilenceDetector
	if r.cfg.VADEnabled {
		vad, err = process.NewSilenceDetector(r.cfg.VADThresholdDB, r.cfg.MinSilence)
		if err != nil {
			return nil, nil, nil, err
		}
		vadID := g.AddProcessor(vad)
		if err := g.Connect(tail, vadID); err != nil {
			return nil, nil, nil, err
		}
		tail = vadID
	}

	sinkID := g.AddSink(wavSink)
	if err := g.Connect(tail, sinkID); err != nil {
		return nil, nil, nil, err
	}

	r.nodeIDs = []graph.NodeID{micID, sysID, mixID}
	if tail != mixID {
		r.nodeIDs = append(r.nodeIDs, tail)
	}
	r.nodeIDs = append(r.nodeIDs, sinkID)
	if r.cfg.OnBuffer != nil {
		cb, err := sink.NewCallback(r.cfg.OnBuffer)
		if err != nil {
			return nil, nil, nil, err
		}
		cbID := g.AddSink(cb)
		if err := g.Connect(tail, cbID); err != nil {
			return nil, nil, nil, err
		}
		r.nodeIDs = append(r.nodeIDs, cbID)
	}
	return g, mixer, vad, nil
}

// micSource returns the microphone leg, or silence when the
// microphone is disabled so the mixer topology stays two-legged.
func (r *Recorder) micSource(format audio.Format) (graph.Source, error) {
	if !r.cfg.EnableMicrophone {
		return source.NewSilence(format, r.cfg.BufferDuration)
	}
	var opts []source.CaptureOption
	if r.cfg.MicrophoneDevice != "" {
		opts = append(opts, source.WithDevice(r.cfg.MicrophoneDevice))
	}
	opts = append(opts, source.WithBufferDuration(r.cfg.BufferDuration))
	return source.NewCapture(format, opts...)
}

// systemSource returns the loopback leg, falling back to silence when
// system capture is disabled or unsupported on this platform.
func (r *Recorder) systemSource(format audio.Format) (graph.Source, error) {
	if !r.cfg.EnableSystemAudio || !source.SystemAudioSupported() {
		if r.cfg.EnableSystemAudio {
			r.log.Warn("System audio capture not supported here, substituting silence")
		}
		return source.NewSilence(format, r.cfg.BufferDuration)
	}
	return source.NewSystemCapture(format, source.WithBufferDuration(r.cfg.BufferDuration))
}

// splitBalance maps the 0-100 balance to mixer weights.
func splitBalance(balance uint8) (mic, system float32) {
	system = float32(balance) / 100
	return 1 - system, system
}

// SetBalance adjusts the mix while recording.
func (r *Recorder) SetBalance(balance uint8) error {
	if balance > 100 {
		return audio.NewConfigError("balance", "%d outside [0, 100]", balance)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg.Balance = balance
	if r.mixer == nil {
		return nil
	}
	micW, sysW := splitBalance(balance)
	if err := r.mixer.SetBalance(0, micW); err != nil {
		return err
	}
	return r.mixer.SetBalance(1, sysW)
}

// Pause suspends the session; captured audio is discarded until
// Resume.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return ErrNotRecording
	}
	if err := r.g.Pause(); err != nil {
		return err
	}
	r.state = StatePaused
	r.log.WithField("session", r.session).Info("Recording paused")
	return nil
}

// Resume continues a paused session.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return ErrNotRecording
	}
	if err := r.g.Resume(); err != nil {
		return err
	}
	r.state = StateRecording
	r.log.WithField("session", r.session).Info("Recording resumed")
	return nil
}

// Stop ends the session, finalizes the file, and returns its path.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateStopped {
		return "", ErrNotRecording
	}
	err := r.g.Stop()
	path := r.path
	r.state = StateStopped
	r.g = nil
	r.mixer = nil
	r.sources = nil
	r.log.WithFields(logrus.Fields{
		"session": r.session,
		"path":    path,
	}).Info("Recording stopped")
	if err != nil {
		return path, fmt.Errorf("recorder: session ended with error: %w", err)
	}
	return path, nil
}

// Recording reports whether a session is active, paused included.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state != StateStopped
}

// Silent reports the silence detector state, false when VAD is off.
func (r *Recorder) Silent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.vad != nil && r.vad.Silent()
}

// Status reports the current session snapshot.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Status{
		State:      r.state,
		SessionID:  r.session,
		OutputPath: r.path,
	}
	if r.state != StateStopped {
		st.Elapsed = time.Since(r.started)
	}
	if r.vad != nil {
		st.Silent = r.vad.Silent()
		st.SilenceRatio = r.vad.SilenceRatio()
	}
	if r.g != nil {
		st.Healthy = r.g.Running()
		st.Err = r.g.Err()
		for _, id := range r.nodeIDs {
			if s, ok := r.g.NodeStats(id); ok {
				st.Overruns += s.Overruns
				st.Errors += s.Errors
			}
		}
		// Capture devices drop oldest on their own queues before the
		// graph ever sees the audio, so fold those counters in too.
		for _, s := range r.sources {
			if o, ok := s.(interface{ Overruns() uint64 }); ok {
				st.Overruns += o.Overruns()
			}
		}
	}
	return st
}
