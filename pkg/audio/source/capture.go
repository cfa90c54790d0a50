// ABOUTME: Malgo-based capture source
// ABOUTME: Microphone and loopback capture via miniaudio with a bounded queue
package source

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/sirupsen/logrus"

	"github.com/sessioncast/audiograph/pkg/audio"
)

const (
	// DefaultBufferDuration is the size of buffers handed to the graph.
	DefaultBufferDuration = 10 * time.Millisecond
	// DefaultCaptureQueue bounds buffers awaiting a slow graph. The
	// oldest buffer is dropped on overflow.
	DefaultCaptureQueue = 32
)

// Capture pulls audio from a miniaudio device. The malgo callback
// accumulates samples into fixed-duration buffers and pushes them onto
// a bounded queue that Read drains from the graph worker.
type Capture struct {
	format     audio.Format
	deviceName string // empty selects the default device
	devType    malgo.DeviceType
	bufferDur  time.Duration
	maxQueue   int

	mu       sync.Mutex
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	queue    []*audio.Buffer
	acc      []float32
	accStart time.Time
	overruns uint64
	started  bool

	log *logrus.Entry
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithDevice selects a capture device by name instead of the default.
func WithDevice(name string) CaptureOption {
	return func(c *Capture) { c.deviceName = name }
}

// WithBufferDuration overrides the emitted buffer size.
func WithBufferDuration(d time.Duration) CaptureOption {
	return func(c *Capture) {
		if d > 0 {
			c.bufferDur = d
		}
	}
}

// WithQueueDepth overrides the pending buffer bound.
func WithQueueDepth(n int) CaptureOption {
	return func(c *Capture) {
		if n > 0 {
			c.maxQueue = n
		}
	}
}

// NewCapture builds a microphone source. The format's sample encoding
// must be F32; integer capture formats are converted by miniaudio.
func NewCapture(format audio.Format, opts ...CaptureOption) (*Capture, error) {
	return newCapture(format, malgo.Capture, "microphone", opts...)
}

func newCapture(format audio.Format, devType malgo.DeviceType, name string, opts ...CaptureOption) (*Capture, error) {
	if !format.Valid() {
		return nil, audio.NewConfigError("format", "invalid format %s", format)
	}
	c := &Capture{
		format:    format,
		devType:   devType,
		bufferDur: DefaultBufferDuration,
		maxQueue:  DefaultCaptureQueue,
		log:       logrus.StandardLogger().WithField("component", name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Format declares the captured stream format.
func (c *Capture) Format() audio.Format { return c.format }

// Start opens the device and begins capturing.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return nil
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("source: initializing audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(c.devType)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(c.format.Channels)
	deviceConfig.SampleRate = c.format.SampleRate
	deviceConfig.Alsa.NoMMap = 1

	if c.deviceName != "" {
		id, err := findDeviceID(ctx, c.devType, c.deviceName)
		if err != nil {
			ctx.Uninit()
			ctx.Free()
			return err
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecv := func(pOutput, pInput []byte, frameCount uint32) {
		c.onSamples(pInput, frameCount)
	}
	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("source: initializing capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("source: starting capture device: %w", err)
	}

	c.ctx = ctx
	c.device = device
	c.started = true
	c.accStart = time.Now()
	c.log.WithField("format", c.format.String()).Info("Capture started")
	return nil
}

// onSamples runs on the miniaudio thread. It converts raw little
// endian float32 bytes and cuts them into bufferDur-sized buffers.
func (c *Capture) onSamples(pInput []byte, frameCount uint32) {
	n := int(frameCount) * c.format.Channels
	if len(pInput) < n*4 {
		n = len(pInput) / 4
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	if len(c.acc) == 0 {
		c.accStart = time.Now()
	}
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(pInput[i*4:])
		c.acc = append(c.acc, math.Float32frombits(bits))
	}

	want := c.format.FramesFor(c.bufferDur) * c.format.Channels
	for len(c.acc) >= want {
		samples := make([]float32, want)
		copy(samples, c.acc[:want])
		c.acc = append(c.acc[:0], c.acc[want:]...)

		buf := &audio.Buffer{Format: c.format, Samples: samples, Timestamp: c.accStart}
		c.accStart = c.accStart.Add(c.bufferDur)

		if len(c.queue) >= c.maxQueue {
			c.queue = c.queue[1:]
			c.overruns++
		}
		c.queue = append(c.queue, buf)
	}
}

// Read pops the oldest captured buffer, or (nil, nil) when none is
// pending.
func (c *Capture) Read() (*audio.Buffer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return nil, nil
	}
	buf := c.queue[0]
	c.queue = c.queue[1:]
	return buf, nil
}

// Overruns returns how many buffers were dropped to a full queue.
func (c *Capture) Overruns() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.overruns
}

// Stop closes the device and releases the context. The device is torn
// down outside the lock: Uninit waits for the data callback, which
// needs the lock itself.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	device, ctx := c.device, c.ctx
	c.device, c.ctx = nil, nil
	c.queue = nil
	c.acc = nil
	c.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if ctx != nil {
		ctx.Uninit()
		ctx.Free()
	}
	c.log.Info("Capture stopped")
	return nil
}

func (c *Capture) Name() string {
	if c.devType == malgo.Loopback {
		return "system-audio"
	}
	return "microphone"
}
