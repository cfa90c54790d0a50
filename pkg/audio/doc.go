// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and level conversion functions
// Package audio provides fundamental audio types and utilities for PCM processing.
//
// This package defines core types used throughout the audiograph library:
//   - Format: Describes a PCM stream (sample rate, channels, sample encoding)
//   - Buffer: A chunk of interleaved float32 samples with timestamp and sequence
//
// It also provides level math and sample width conversions:
//   - Decibel ↔ linear gain conversions
//   - float32 ↔ int16/int24/int32 sample conversions
//
// Example:
//
//	format := audio.NewFormat(48000, 2, audio.F32)
//	buf := audio.NewSilent(format, 100*time.Millisecond)
//	fmt.Println(buf.RMS(), buf.Duration())
package audio
