// Package metrics defines the Prometheus instrumentation for the serial
// audio monitor: ingest, decoding, buffering, playback and analysis
// counters exposed on the HTTP /metrics endpoint.
package metrics
