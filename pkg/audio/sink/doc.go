// ABOUTME: Audio sink implementations
// ABOUTME: WAV files, in-memory capture, callbacks, playback, and null
// Package sink implements the consuming edge of the audio graph.
//
// WAV writes uncompressed PCM files, Playback feeds the system output
// device, Memory accumulates samples for inspection, Callback hands
// buffers to arbitrary code (streaming transcribers, level meters),
// and Null discards audio while keeping counts.
//
// All sinks implement graph.Sink; WAV and Playback also implement
// graph.FormatSink so topology validation can reject mismatched
// producers before the graph starts.
package sink
