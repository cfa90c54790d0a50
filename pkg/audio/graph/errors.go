// ABOUTME: Error taxonomy for the audio graph
// ABOUTME: Sentinel topology errors and severity-tagged runtime errors
package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrCycle means an edge would make the graph cyclic.
	ErrCycle = errors.New("graph: edge would create a cycle")
	// ErrUnknownNode means a NodeID does not belong to this graph.
	ErrUnknownNode = errors.New("graph: unknown node")
	// ErrInvalidEdge means the edge direction is impossible, such as
	// into a source or out of a sink.
	ErrInvalidEdge = errors.New("graph: invalid edge")
	// ErrDuplicateEdge means the two nodes are already connected.
	ErrDuplicateEdge = errors.New("graph: duplicate edge")
	// ErrFormatIncompatible means producer and consumer formats differ.
	ErrFormatIncompatible = errors.New("graph: incompatible formats")
	// ErrIncompleteGraph means a processor or sink has no input, or the
	// graph has no source or no sink at all.
	ErrIncompleteGraph = errors.New("graph: incomplete topology")
	// ErrAlreadyStarted means Start was called on a running graph.
	ErrAlreadyStarted = errors.New("graph: already started")
	// ErrStopped means the graph has been stopped and cannot restart.
	ErrStopped = errors.New("graph: stopped")
	// ErrNotRunning means the operation needs a running graph.
	ErrNotRunning = errors.New("graph: not running")
)

// Severity classifies a runtime node failure.
type Severity int

const (
	// Recoverable failures are counted and logged; the tick continues.
	Recoverable Severity = iota
	// Fatal failures shut the whole graph down.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "recoverable"
}

// NodeError wraps a failure from a node callback with the node it came
// from and how the graph reacted.
type NodeError struct {
	Node     NodeID
	Name     string
	Severity Severity
	Err      error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("graph: node %d (%s) %s error: %v", e.Node, e.Name, e.Severity, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// fatalError marks an error as graph-fatal regardless of which
// callback produced it.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatalf builds an error that stops the graph even from a callback
// whose failures are normally recoverable.
func Fatalf(format string, args ...any) error {
	return &fatalError{err: fmt.Errorf(format, args...)}
}

// MarkFatal wraps err so the graph treats it as fatal.
func MarkFatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err carries the fatal marker.
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}
