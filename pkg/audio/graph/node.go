// ABOUTME: Node contracts for the audio graph
// ABOUTME: Defines Source, Processor, MultiProcessor, and Sink interfaces
package graph

import (
	"time"

	"github.com/sessioncast/audiograph/pkg/audio"
)

// NodeID identifies a node within one Graph. IDs are opaque handles
// handed out by the Add methods and are never reused.
type NodeID int

// Source produces audio buffers. Read is non-blocking: it returns
// (nil, nil) when no data is ready yet.
type Source interface {
	// Format declares the stream the source will produce.
	Format() audio.Format
	// Start acquires the underlying device or generator.
	Start() error
	// Stop releases it. Stop after Stop is a no-op.
	Stop() error
	// Read returns the next available buffer, or (nil, nil) when none
	// is ready. Ownership of the returned buffer moves to the caller.
	Read() (*audio.Buffer, error)
	Name() string
}

// Processor transforms one buffer into another. Implementations may
// mutate the input in place and return it, or return a fresh buffer.
// Returning (nil, nil) or an empty buffer means nothing is ready yet,
// which lets processors buffer internally across calls.
type Processor interface {
	Process(in *audio.Buffer) (*audio.Buffer, error)
	// OutputFormat maps an input format to the format this processor
	// emits, used during topology validation.
	OutputFormat(in audio.Format) audio.Format
	// Reset drops internal state (ramps, accumulators, history).
	Reset()
	Name() string
}

// Drainer is implemented by processors that hold look-ahead audio
// across Process calls. During an orderly stop the graph calls Drain
// once and pushes the returned tail through the downstream nodes.
// Drain returns nil when nothing is pending.
type Drainer interface {
	Drain() *audio.Buffer
}

// MultiProcessor consumes one buffer from each of several inputs per
// step. The graph delivers inputs ordered by producer NodeID so a run
// with identical sources is deterministic.
type MultiProcessor interface {
	Processor
	ProcessMulti(ins []*audio.Buffer) (*audio.Buffer, error)
	// InputCount is the number of inbound edges the node requires.
	InputCount() int
}

// Sink consumes buffers at the edge of the graph.
type Sink interface {
	Write(buf *audio.Buffer) error
	// Flush forces any internally buffered audio out.
	Flush() error
	// Close flushes and releases the sink. Write after Close errors.
	Close() error
	Name() string
}

// FormatSink is implemented by sinks that only accept one stream
// format, letting Connect reject mismatched producers early.
type FormatSink interface {
	Sink
	Format() audio.Format
}

// Stats holds per-node counters sampled via Graph.NodeStats.
type Stats struct {
	Buffers     uint64
	Samples     uint64
	Errors      uint64
	Overruns    uint64
	AvgProcTime time.Duration
	LastActive  time.Time
}

// observe folds one processing duration into the running average.
func (s *Stats) observe(buf *audio.Buffer, elapsed time.Duration) {
	s.Buffers++
	s.Samples += uint64(len(buf.Samples))
	s.LastActive = time.Now()
	if s.AvgProcTime == 0 {
		s.AvgProcTime = elapsed
		return
	}
	// Exponential moving average, alpha = 1/8.
	s.AvgProcTime += (elapsed - s.AvgProcTime) / 8
}
