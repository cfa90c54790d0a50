// ABOUTME: Audio resampling package using FFT spectral mapping
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Conversion works in the frequency domain: each fixed-size input
// chunk is transformed with a real FFT, its spectrum is mapped onto
// the output chunk's bin grid, and an inverse transform produces the
// output chunk. Truncating bins on downsample acts as the anti-alias
// low-pass. Chunk sizes are chosen so the input/output frame ratio is
// exact, so long streams neither gain nor lose time.
//
// The resampler implements graph.Processor and accumulates partial
// chunks across calls; output buffers appear once a full input chunk
// is available.
//
// Example:
//
//	r, err := resample.New(16000, 48000, 1, 1024)
//	out, err := r.Process(in)
package resample
