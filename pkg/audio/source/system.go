// ABOUTME: System audio loopback source
// ABOUTME: WASAPI loopback capture where the platform supports it
package source

import (
	"errors"
	"runtime"

	"github.com/gen2brain/malgo"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// ErrLoopbackUnsupported means this platform cannot capture system
// output. Callers fall back to a Silence source so mixer topologies
// keep both legs.
var ErrLoopbackUnsupported = errors.New("source: system audio loopback not supported on this platform")

// SystemAudioSupported reports whether loopback capture works here.
// miniaudio implements loopback through WASAPI only.
func SystemAudioSupported() bool {
	return runtime.GOOS == "windows"
}

// NewSystemCapture builds a source capturing what the system is
// playing. Fails with ErrLoopbackUnsupported off Windows.
func NewSystemCapture(format audio.Format, opts ...CaptureOption) (*Capture, error) {
	if !SystemAudioSupported() {
		return nil, ErrLoopbackUnsupported
	}
	return newCapture(format, malgo.Loopback, "system-audio", opts...)
}
