// ABOUTME: Audio graph container and worker loop
// ABOUTME: Topology validation, Kahn ordering, tick-driven buffer movement
package graph

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sessioncast/audiograph/pkg/audio"
)

const (
	// DefaultTick is the worker cadence. Small enough that 10ms source
	// buffers never back up, large enough to stay off the scheduler.
	DefaultTick = 5 * time.Millisecond
	// DefaultQueueDepth bounds each edge queue. Oldest buffers are
	// dropped on overflow so latency stays bounded under a slow consumer.
	DefaultQueueDepth = 8
)

// State is the graph lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type nodeKind int

const (
	kindSource nodeKind = iota
	kindProcessor
	kindSink
)

type node struct {
	id     NodeID
	kind   nodeKind
	source Source
	proc   Processor
	sink   Sink

	seq uint64

	// inEdges and outEdges index into Graph.edges, fixed at Start.
	// inEdges is sorted by producer NodeID.
	inEdges  []int
	outEdges []int

	outFormat audio.Format
	stats     Stats
}

func (n *node) name() string {
	switch n.kind {
	case kindSource:
		return n.source.Name()
	case kindProcessor:
		return n.proc.Name()
	default:
		return n.sink.Name()
	}
}

// edge carries the queue of buffers produced on it but not yet
// consumed. A producer feeding several consumers clones into each
// outbound edge, so per-edge ownership still moves cleanly.
type edge struct {
	from, to NodeID
	queue    []*audio.Buffer
}

// Option configures a Graph.
type Option func(*Graph)

// WithTick overrides the worker cadence.
func WithTick(d time.Duration) Option {
	return func(g *Graph) {
		if d > 0 {
			g.tick = d
		}
	}
}

// WithQueueDepth overrides the per-producer queue bound.
func WithQueueDepth(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxQueue = n
		}
	}
}

// WithLogger routes graph logging through the given logger.
func WithLogger(log *logrus.Logger) Option {
	return func(g *Graph) {
		if log != nil {
			g.log = log.WithField("component", "graph")
		}
	}
}

// Graph owns a set of nodes and edges and, once started, a worker
// goroutine that moves audio through them. All exported methods are
// safe for concurrent use.
type Graph struct {
	mu       sync.Mutex
	nodes    map[NodeID]*node
	edges    []edge
	nextID   NodeID
	order    []NodeID
	state    atomic.Int32
	runErr   error
	tick     time.Duration
	maxQueue int
	paused   atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
	log      *logrus.Entry
}

// New returns an empty graph ready for node registration.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:    make(map[NodeID]*node),
		tick:     DefaultTick,
		maxQueue: DefaultQueueDepth,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		log:      logrus.StandardLogger().WithField("component", "graph"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddSource registers a source and returns its handle.
func (g *Graph) AddSource(s Source) NodeID {
	return g.add(&node{kind: kindSource, source: s, outFormat: s.Format()})
}

// AddProcessor registers a processor and returns its handle.
func (g *Graph) AddProcessor(p Processor) NodeID {
	return g.add(&node{kind: kindProcessor, proc: p})
}

// AddSink registers a sink and returns its handle.
func (g *Graph) AddSink(s Sink) NodeID {
	return g.add(&node{kind: kindSink, sink: s})
}

func (g *Graph) add(n *node) NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	n.id = g.nextID
	g.nextID++
	g.nodes[n.id] = n
	return n.id
}

// Connect adds a directed edge from producer to consumer. It rejects
// unknown nodes, edges into sources or out of sinks, duplicates, edges
// that would create a cycle, and statically resolvable format
// mismatches.
func (g *Graph) Connect(from, to NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.State() != StateIdle {
		return ErrAlreadyStarted
	}
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownNode, to)
	}
	if src.kind == kindSink {
		return fmt.Errorf("%w: %s is a sink and cannot produce", ErrInvalidEdge, src.name())
	}
	if dst.kind == kindSource {
		return fmt.Errorf("%w: %s is a source and cannot consume", ErrInvalidEdge, dst.name())
	}
	for _, e := range g.edges {
		if e.from == from && e.to == to {
			return fmt.Errorf("%w: %d -> %d", ErrDuplicateEdge, from, to)
		}
	}
	candidate := append(append([]edge(nil), g.edges...), edge{from: from, to: to})
	if _, err := topoOrder(g.nodes, candidate); err != nil {
		return err
	}
	if err := g.checkEdgeFormat(src, dst); err != nil {
		return err
	}

	g.edges = candidate
	return nil
}

// checkEdgeFormat rejects the mismatches that are resolvable before
// Start. Processor chains whose input format is still unknown are
// re-validated once the full topology is fixed.
func (g *Graph) checkEdgeFormat(src, dst *node) error {
	out, known := g.resolveLocked(src)
	if !known {
		return nil
	}
	if fs, ok := dst.sink.(FormatSink); ok && dst.kind == kindSink {
		if want := fs.Format(); !out.Compatible(want) {
			return fmt.Errorf("%w: %s produces %s, %s expects %s",
				ErrFormatIncompatible, src.name(), out, dst.name(), want)
		}
	}
	return nil
}

// resolveLocked walks upstream to determine a node's output format.
func (g *Graph) resolveLocked(n *node) (audio.Format, bool) {
	if n.kind == kindSource {
		return n.source.Format(), true
	}
	if n.kind == kindSink {
		return audio.Format{}, false
	}
	for _, e := range g.edges {
		if e.to != n.id {
			continue
		}
		in, ok := g.resolveLocked(g.nodes[e.from])
		if !ok {
			return audio.Format{}, false
		}
		return n.proc.OutputFormat(in), true
	}
	return audio.Format{}, false
}

// topoOrder runs Kahn's algorithm over the node set. Ready nodes are
// visited in ascending NodeID so the schedule is deterministic. A
// nonempty remainder means a cycle.
func topoOrder(nodes map[NodeID]*node, edges []edge) ([]NodeID, error) {
	indeg := make(map[NodeID]int, len(nodes))
	for id := range nodes {
		indeg[id] = 0
	}
	for _, e := range edges {
		indeg[e.to]++
	}

	var ready []NodeID
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	order := make([]NodeID, 0, len(nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, e := range edges {
			if e.from != id {
				continue
			}
			indeg[e.to]--
			if indeg[e.to] == 0 {
				ready = append(ready, e.to)
			}
		}
	}
	if len(order) != len(nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// Start validates the topology and spins up the worker. The graph is
// single-shot: once stopped it cannot be started again.
func (g *Graph) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.State() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped, StateFailed:
		return ErrStopped
	}

	if err := g.validateLocked(); err != nil {
		return err
	}
	order, err := topoOrder(g.nodes, g.edges)
	if err != nil {
		return err
	}
	g.order = order

	for _, n := range g.nodes {
		n.inEdges = n.inEdges[:0]
		n.outEdges = n.outEdges[:0]
		for i, e := range g.edges {
			if e.to == n.id {
				n.inEdges = append(n.inEdges, i)
			}
			if e.from == n.id {
				n.outEdges = append(n.outEdges, i)
			}
		}
		sort.Slice(n.inEdges, func(i, j int) bool {
			return g.edges[n.inEdges[i]].from < g.edges[n.inEdges[j]].from
		})
	}

	var started []*node
	for _, id := range g.order {
		n := g.nodes[id]
		if n.kind != kindSource {
			continue
		}
		if err := n.source.Start(); err != nil {
			for _, s := range started {
				if stopErr := s.source.Stop(); stopErr != nil {
					g.log.WithError(stopErr).Warnf("stopping %s during rollback", s.name())
				}
			}
			return fmt.Errorf("starting source %s: %w", n.name(), err)
		}
		started = append(started, n)
	}

	g.state.Store(int32(StateRunning))
	g.log.WithFields(logrus.Fields{
		"nodes": len(g.nodes),
		"edges": len(g.edges),
		"tick":  g.tick,
	}).Info("Graph started")

	go g.run()
	return nil
}

// validateLocked enforces completeness: at least one source and one
// sink, every processor and sink fed, multi-input counts satisfied,
// and compatible formats along every edge.
func (g *Graph) validateLocked() error {
	var sources, sinks int
	for _, n := range g.nodes {
		switch n.kind {
		case kindSource:
			sources++
		case kindSink:
			sinks++
		}
	}
	if sources == 0 {
		return fmt.Errorf("%w: no sources", ErrIncompleteGraph)
	}
	if sinks == 0 {
		return fmt.Errorf("%w: no sinks", ErrIncompleteGraph)
	}

	for _, n := range g.nodes {
		if n.kind == kindSource {
			continue
		}
		inbound := 0
		for _, e := range g.edges {
			if e.to == n.id {
				inbound++
			}
		}
		if inbound == 0 {
			return fmt.Errorf("%w: %s has no input", ErrIncompleteGraph, n.name())
		}
		if mp, ok := n.proc.(MultiProcessor); ok && n.kind == kindProcessor {
			if inbound != mp.InputCount() {
				return fmt.Errorf("%w: %s requires %d inputs, has %d",
					ErrIncompleteGraph, n.name(), mp.InputCount(), inbound)
			}
		}
	}

	return g.resolveFormatsLocked()
}

// resolveFormatsLocked fixes every node's output format along a
// provisional topological order and verifies edge compatibility,
// including that all inputs of a multi-input node agree.
func (g *Graph) resolveFormatsLocked() error {
	order, err := topoOrder(g.nodes, g.edges)
	if err != nil {
		return err
	}
	for _, id := range order {
		n := g.nodes[id]
		var inFormats []audio.Format
		for _, e := range g.edges {
			if e.to == id {
				inFormats = append(inFormats, g.nodes[e.from].outFormat)
			}
		}
		switch n.kind {
		case kindSource:
			n.outFormat = n.source.Format()
		case kindProcessor:
			for _, f := range inFormats[1:] {
				if !f.Compatible(inFormats[0]) {
					return fmt.Errorf("%w: %s inputs disagree (%s vs %s)",
						ErrFormatIncompatible, n.name(), inFormats[0], f)
				}
			}
			n.outFormat = n.proc.OutputFormat(inFormats[0])
		case kindSink:
			if fs, ok := n.sink.(FormatSink); ok {
				want := fs.Format()
				for _, f := range inFormats {
					if !f.Compatible(want) {
						return fmt.Errorf("%w: %s receives %s, expects %s",
							ErrFormatIncompatible, n.name(), f, want)
					}
				}
			}
		}
	}
	return nil
}

// run is the worker goroutine. It owns all queues until shutdown.
func (g *Graph) run() {
	defer close(g.done)

	ticker := time.NewTicker(g.tick)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopCh:
			// A fatal error during the final flush still fails the
			// graph rather than reporting a clean stop.
			g.shutdown(g.processTick())
			return
		case <-ticker.C:
			if err := g.processTick(); err != nil {
				g.shutdown(err)
				return
			}
		}
	}
}

// processTick advances every node once in topological order. A non-nil
// return is fatal to the graph.
func (g *Graph) processTick() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, id := range g.order {
		n := g.nodes[id]
		var err error
		switch n.kind {
		case kindSource:
			err = g.tickSource(n)
		case kindProcessor:
			err = g.tickProcessor(n)
		case kindSink:
			err = g.tickSink(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) tickSource(n *node) error {
	buf, err := n.source.Read()
	if err != nil {
		n.stats.Errors++
		return &NodeError{Node: n.id, Name: n.name(), Severity: Fatal, Err: err}
	}
	if buf == nil || len(buf.Samples) == 0 {
		return nil
	}
	if g.paused.Load() {
		// Paused sessions keep draining devices so their internal
		// queues do not overflow, but the audio is discarded.
		return nil
	}
	n.stats.observe(buf, 0)
	g.enqueue(n, buf)
	return nil
}

func (g *Graph) tickProcessor(n *node) error {
	if mp, ok := n.proc.(MultiProcessor); ok {
		return g.tickMulti(n, mp)
	}

	in0 := &g.edges[n.inEdges[0]]
	for len(in0.queue) > 0 {
		in := in0.queue[0]
		in0.queue = in0.queue[1:]

		start := time.Now()
		out, err := n.proc.Process(in)
		if err != nil {
			if nodeErr := g.nodeFailure(n, err); nodeErr != nil {
				return nodeErr
			}
			continue
		}
		n.stats.observe(in, time.Since(start))
		if out != nil && len(out.Samples) > 0 {
			g.enqueue(n, out)
		}
	}
	return nil
}

func (g *Graph) tickMulti(n *node, mp MultiProcessor) error {
	for {
		ins := make([]*audio.Buffer, len(n.inEdges))
		for i, ei := range n.inEdges {
			if len(g.edges[ei].queue) == 0 {
				// One leg is behind; wait for the next tick rather
				// than mixing unequal step counts.
				return nil
			}
			ins[i] = g.edges[ei].queue[0]
		}
		for _, ei := range n.inEdges {
			g.edges[ei].queue = g.edges[ei].queue[1:]
		}

		start := time.Now()
		out, err := mp.ProcessMulti(ins)
		if err != nil {
			if nodeErr := g.nodeFailure(n, err); nodeErr != nil {
				return nodeErr
			}
			continue
		}
		n.stats.observe(ins[0], time.Since(start))
		if out != nil && len(out.Samples) > 0 {
			g.enqueue(n, out)
		}
	}
}

func (g *Graph) tickSink(n *node) error {
	for _, ei := range n.inEdges {
		in := &g.edges[ei]
		for len(in.queue) > 0 {
			buf := in.queue[0]
			in.queue = in.queue[1:]

			start := time.Now()
			if err := n.sink.Write(buf); err != nil {
				if nodeErr := g.nodeFailure(n, err); nodeErr != nil {
					return nodeErr
				}
				continue
			}
			n.stats.observe(buf, time.Since(start))
		}
	}
	return nil
}

// nodeFailure classifies a runtime error. Recoverable failures are
// logged and counted; the returned error is non-nil only for fatal
// ones.
func (g *Graph) nodeFailure(n *node, err error) error {
	n.stats.Errors++
	if IsFatal(err) {
		return &NodeError{Node: n.id, Name: n.name(), Severity: Fatal, Err: err}
	}
	g.log.WithError(err).WithField("node", n.name()).Warn("Recoverable node error")
	return nil
}

// enqueue places the buffer on every outbound edge, dropping the
// oldest buffer on a full edge. Extra consumers get clones so each
// edge owns its copies.
func (g *Graph) enqueue(n *node, buf *audio.Buffer) {
	buf.Seq = n.seq
	n.seq++
	for i, ei := range n.outEdges {
		out := buf
		if i > 0 {
			out = buf.Clone()
		}
		e := &g.edges[ei]
		if len(e.queue) >= g.maxQueue {
			e.queue = e.queue[1:]
			n.stats.Overruns++
		}
		e.queue = append(e.queue, out)
	}
}

// drainLocked flushes look-ahead tails on an orderly stop. Draining
// runs in topological order so a tail released by one processor still
// flows through everything downstream of it before the sinks close.
func (g *Graph) drainLocked() error {
	for _, id := range g.order {
		n := g.nodes[id]
		switch n.kind {
		case kindProcessor:
			if err := g.tickProcessor(n); err != nil {
				return err
			}
			d, ok := n.proc.(Drainer)
			if !ok {
				continue
			}
			if tail := d.Drain(); tail != nil && len(tail.Samples) > 0 {
				n.stats.observe(tail, 0)
				g.enqueue(n, tail)
			}
		case kindSink:
			if err := g.tickSink(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// shutdown flushes sinks and releases sources, recording cause as the
// terminal error when non-nil.
func (g *Graph) shutdown(cause error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cause == nil {
		cause = g.drainLocked()
	}

	for _, id := range g.order {
		n := g.nodes[id]
		switch n.kind {
		case kindSource:
			if err := n.source.Stop(); err != nil {
				g.log.WithError(err).Warnf("stopping source %s", n.name())
			}
		case kindSink:
			if err := n.sink.Close(); err != nil {
				g.log.WithError(err).Warnf("closing sink %s", n.name())
			}
		}
	}

	if cause != nil {
		g.runErr = cause
		g.state.Store(int32(StateFailed))
		g.log.WithError(cause).Error("Graph failed")
		return
	}
	g.state.Store(int32(StateStopped))
	g.log.Info("Graph stopped")
}

// Stop signals the worker, waits for the final flush, and returns the
// terminal error if the graph failed. Safe to call more than once.
func (g *Graph) Stop() error {
	if g.State() == StateIdle {
		return ErrNotRunning
	}
	g.stopOnce.Do(func() { close(g.stopCh) })
	<-g.done
	return g.Err()
}

// Pause discards source output without stopping devices.
func (g *Graph) Pause() error {
	if g.State() != StateRunning {
		return ErrNotRunning
	}
	g.paused.Store(true)
	return nil
}

// Resume reverses Pause.
func (g *Graph) Resume() error {
	if g.State() != StateRunning {
		return ErrNotRunning
	}
	g.paused.Store(false)
	return nil
}

// Paused reports whether source output is being discarded.
func (g *Graph) Paused() bool { return g.paused.Load() }

// State returns the lifecycle state.
func (g *Graph) State() State { return State(g.state.Load()) }

// Running reports whether the worker is live.
func (g *Graph) Running() bool { return g.State() == StateRunning }

// Err returns the error that stopped the graph, if any.
func (g *Graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.runErr
}

// NodeStats returns a snapshot of one node's counters.
func (g *Graph) NodeStats(id NodeID) (Stats, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return Stats{}, false
	}
	return n.stats, true
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}
