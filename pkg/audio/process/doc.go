// ABOUTME: Audio processor implementations
// ABOUTME: Mixer, volume control, normalizer, and silence detection
// Package process implements the transform stages of the audio graph:
// multi-input mixing, gain with smooth ramping, look-ahead peak
// normalization, and RMS silence detection.
//
// All processors operate on interleaved float32 buffers and implement
// graph.Processor; the Mixer additionally implements
// graph.MultiProcessor.
package process
