// Package audio provides the fixed-capacity sample ring buffer that bridges
// the serial-reading producer and the real-time playback consumer.
// Overflow drops the oldest samples so the writer never blocks.
package audio
