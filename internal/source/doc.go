// Package source provides the byte-stream source feeding the frame decoder.
// The production implementation reads from a serial port; anything that can
// deliver bytes with bounded-timeout reads and accept the streaming toggle
// satisfies the Source interface.
package source
