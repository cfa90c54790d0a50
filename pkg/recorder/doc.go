// ABOUTME: Recording session façade
// ABOUTME: Assembles standard capture topologies over the audio graph
// Package recorder wraps the audio graph in a session-oriented API for
// the common recording shapes: microphone only, system audio only, or
// both mixed with an adjustable balance, optionally followed by
// silence detection, ending in a WAV file and, when configured, a
// caller-supplied buffer callback.
//
// Disabled inputs are replaced by silence generators so the mixer
// topology stays fixed while either leg is toggled. Sessions are
// identified by UUID and are single-shot, mirroring the graph
// lifecycle underneath.
package recorder
