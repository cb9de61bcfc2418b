// Package pipeline wires the serial byte source, frame decoder, ring buffer
// and analysis chain into a single context object with an explicit
// Start/Stop lifecycle. The producer goroutine drives decoding and ring
// writes; the observer goroutine periodically snapshots the ring, derives
// statistics and classifies the ambient environment. Playback pulls from
// the same ring on the audio sink's own cadence.
package pipeline
