// ABOUTME: Tests for configuration loading
// ABOUTME: Defaults, file parsing, validation, and recorder mapping
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audiograph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(16000), cfg.Audio.SampleRate)
	assert.Equal(t, 10, cfg.Audio.BufferMs)
	assert.True(t, cfg.Audio.EnableMicrophone)
	assert.False(t, cfg.Audio.EnableSystemAudio)
	assert.Equal(t, uint8(50), cfg.Audio.Balance)
	assert.True(t, cfg.VAD.Enabled)
	assert.Equal(t, float32(-45), cfg.VAD.ThresholdDB)
	assert.Equal(t, "recordings", cfg.Output.Directory)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
audio:
  sample_rate: 48000
  balance: 75
  enable_system_audio: true
  microphone_device: "USB Mic"
vad:
  enabled: false
  threshold_db: -30
output:
  directory: /tmp/captures
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint32(48000), cfg.Audio.SampleRate)
	assert.Equal(t, uint8(75), cfg.Audio.Balance)
	assert.True(t, cfg.Audio.EnableSystemAudio)
	assert.Equal(t, "USB Mic", cfg.Audio.MicrophoneDevice)
	assert.False(t, cfg.VAD.Enabled)
	assert.Equal(t, float32(-30), cfg.VAD.ThresholdDB)
	assert.Equal(t, "/tmp/captures", cfg.Output.Directory)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load("/nonexistent/audiograph.yaml")
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"balance too high", "audio:\n  balance: 150\n"},
		{"rate too high", "audio:\n  sample_rate: 400000\n"},
		{"threshold above zero", "vad:\n  threshold_db: 5\n"},
		{"zero min silence", "vad:\n  min_silence_ms: 0\n"},
		{"buffer too large", "audio:\n  buffer_ms: 5000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestRecorderConfigMapping(t *testing.T) {
	path := writeConfig(t, `
audio:
  sample_rate: 16000
  buffer_ms: 20
  balance: 30
vad:
  min_silence_ms: 1500
output:
  directory: out
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	rc := cfg.RecorderConfig()
	assert.Equal(t, uint32(16000), rc.SampleRate)
	assert.Equal(t, 20*time.Millisecond, rc.BufferDuration)
	assert.Equal(t, uint8(30), rc.Balance)
	assert.Equal(t, 1500*time.Millisecond, rc.MinSilence)
	assert.Equal(t, "out", rc.OutputDir)
}
