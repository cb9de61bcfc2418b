// Package protocol implements the serial framing protocol used by the
// microphone firmware: magic-delimited, length-prefixed packets of 16-bit
// PCM samples, decoded incrementally with silent resynchronization.
package protocol
