// ABOUTME: Audio source implementations
// ABOUTME: Microphone and loopback capture plus silence and tone generators
// Package source implements the producing edge of the audio graph.
//
// Capture wraps a miniaudio capture device (microphone), SystemCapture
// wraps WASAPI loopback where the platform supports it, and Silence
// and Tone are wall-clock paced generators used for testing and for
// keeping a pipeline fed when a device is disabled.
//
// All sources hand out float32 buffers and implement graph.Source.
package source
