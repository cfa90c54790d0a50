// ABOUTME: Audio processing graph package
// ABOUTME: Wires sources, processors, and sinks into a driven pipeline
// Package graph connects audio sources, processors, and sinks into a
// directed acyclic pipeline and drives it from a dedicated worker
// goroutine.
//
// Nodes are added individually and wired with Connect. Start validates
// the topology (no cycles, no dangling processors or sinks, compatible
// formats along every edge) before any audio flows. Once running, each
// tick pulls from sources, pushes buffers through processors in
// dependency order, and delivers results to sinks.
//
// Buffers move between stages. A stage that produces a buffer gives up
// ownership; downstream stages are free to mutate it in place.
//
// A producer feeding several consumers has its buffers cloned onto
// each additional edge, so fan-out is safe.
//
// Example:
//
//	silence, _ := source.NewSilence(audio.Speech(), 10*time.Millisecond)
//	vad, _ := process.NewSilenceDetector(-40, time.Second)
//
//	g := graph.New()
//	src := g.AddSource(silence)
//	det := g.AddProcessor(vad)
//	out := g.AddSink(sink.NewNull())
//	g.Connect(src, det)
//	g.Connect(det, out)
//	if err := g.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer g.Stop()
package graph
