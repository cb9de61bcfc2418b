// Package playback implements the real-time audio output path: a pull
// coordinator that fills fixed-cadence blocks from the ring buffer without
// allocating or blocking, and a miniaudio-backed output device that drives
// it. Playback is optional; the analysis path runs without it.
package playback
